package models

// Account - a member and its token balance
type Account struct {
	Address  string `gorm:"primaryKey;size:42"`
	Position int    `gorm:"not null"`
	Balance  uint64 `gorm:"not null"`
}

// TableName - Return table name
func (t Account) TableName() string {
	return "accounts"
}

// Organization - the single row of organization-wide parameters and counters
type Organization struct {
	ID               uint `gorm:"primaryKey;autoIncrement:false"`
	InitialSupply    uint64
	TotalSupply      uint64
	VotingPeriod     uint64
	MinVotesRequired uint32
	NextProposalID   uint32
}

// TableName - Return table name
func (t Organization) TableName() string {
	return "organization"
}
