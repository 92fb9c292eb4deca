package model

// PoolRecord is the persisted snapshot of a pool's accounting state.
type PoolRecord struct {
	Pool        string `json:"pool"`
	AssetA      string `json:"asset_a"`
	AssetB      string `json:"asset_b"`
	Reserve0    string `json:"reserve0"`
	Reserve1    string `json:"reserve1"`
	TotalShares string `json:"total_shares"`
}
