package model

// params for Flags
type CommandLineFlags struct {
	Config     *string `json:"config"`
	Schema     *string `json:"schema"`
	Source     *string `json:"source"`
	Output     *string `json:"output"`
	OutputKind *string `json:"output_kind"`
	Workers    *int    `json:"workers"`
	Print      *bool   `json:"print"`
	Format     *string `json:"format"`
	Describe   *bool   `json:"describe"`
	LogLevel   *string `json:"log_level"`
	LogFormat  *string `json:"log_format"`
}
