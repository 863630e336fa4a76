package models

// Config is the process configuration, decoded from the `env` section.
type Config struct {
	ConnectionString string `mapstructure:"NDAU_CONNECTION_STRING"`

	// Members are the hex addresses of the founding members.
	Members          []string `mapstructure:"MEMBERS"`
	TotalSupply      uint64   `mapstructure:"TOTAL_SUPPLY"`
	VotingPeriod     uint64   `mapstructure:"VOTING_PERIOD"`
	MinVotesRequired uint32   `mapstructure:"MIN_VOTES_REQUIRED"`

	// Organization is the only caller allowed to distribute tokens.
	Organization string `mapstructure:"ORGANIZATION"`

	// ChainURL is an EVM node used as the block clock. Without it the clock
	// advances one block every BlockInterval seconds.
	ChainURL      string `mapstructure:"CHAIN_URL"`
	BlockInterval uint64 `mapstructure:"BLOCK_INTERVAL"`

	Port      int `mapstructure:"PORT"`
	EventPort int `mapstructure:"EVENT_PORT"`

	// SinkURL receives the CloudEvents notifications; empty disables them.
	SinkURL string `mapstructure:"SINK_URL"`
	Source  string `mapstructure:"SOURCE"`
}
