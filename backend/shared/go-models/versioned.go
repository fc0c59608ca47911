// go-models/versioned.go
package models

// Versioned carries the optimistic-lock counter. Embed it anonymously;
// every UPDATE bumps row_version and matches on the previous value.
type Versioned struct {
	RowVersion int64 `json:"row_version"`
}

func (v *Versioned) GetRowVersion() int64  { return v.RowVersion }
func (v *Versioned) SetRowVersion(n int64) { v.RowVersion = n }
