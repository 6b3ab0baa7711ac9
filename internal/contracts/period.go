package contracts

import "time"

// Period is a reporting period with published bank ratios (e.g. "2024Q4")
type Period struct {
	Code        string    `json:"period"`
	BankCount   int       `json:"bank_count"`
	PublishedAt time.Time `json:"published_at"`
}
