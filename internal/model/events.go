package model

// Event names as they appear in EventRecord.EventName.
const (
	EventReservesSynced = "ReservesSynced"
	EventSwapped        = "Swapped"
)

// ReservesSyncedData is the payload written at the end of every deposit,
// withdrawal, swap, and explicit sync.
type ReservesSyncedData struct {
	Reserve0 string `json:"reserve0"`
	Reserve1 string `json:"reserve1"`
}

// SwappedData is the payload written for every successful swap.
type SwappedData struct {
	Sender    string `json:"sender"`
	In0       string `json:"in0"`
	In1       string `json:"in1"`
	Out0      string `json:"out0"`
	Out1      string `json:"out1"`
	Recipient string `json:"recipient"`
}
