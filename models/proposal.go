package models

// Proposal -
type Proposal struct {
	ProposalID     uint32 `gorm:"primaryKey;autoIncrement:false"`
	Name           string
	Description    string
	Author         string `gorm:"size:42;index"`
	Kind           string
	Options        []string `gorm:"serializer:json;type:text"`
	Amount         *uint64
	Votes          []uint32 `gorm:"serializer:json;type:text"`
	Voters         []string `gorm:"serializer:json;type:text"`
	Status         string   `gorm:"index"`
	CreatedHeight  uint64
	DeadlineHeight uint64
}

// TableName - Return table name
func (t Proposal) TableName() string {
	return "proposals"
}
