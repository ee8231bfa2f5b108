package tools

import (
	"context"
	"encoding/json"
)

// SysReport returns static instructions for collecting a system report on the
// target machine. Nothing is executed server-side.
type SysReport struct{}

// NewSysReport creates the sysreport_instructions tool.
func NewSysReport() *SysReport {
	return &SysReport{}
}

func (t *SysReport) Name() string { return "sysreport_instructions" }

func (t *SysReport) Description() string {
	return "Return instructions for running the sysreport system analysis tool on the target machine."
}

type sysReportResponse struct {
	Instructions string `json:"instructions"`
	Repository   string `json:"repository"`
	UsageCommand string `json:"usage_command"`
	Note         string `json:"note"`
}

func (t *SysReport) Run(_ context.Context, raw json.RawMessage) (any, error) {
	var args struct {
		InvocationReason string `json:"invocation_reason,omitempty"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}

	return sysReportResponse{
		Instructions: "Clone the sysreport repository on the machine you want to analyze, " +
			"then run the report script and share its output.",
		Repository:   "https://github.com/ARM-software/sysreport",
		UsageCommand: "git clone https://github.com/ARM-software/sysreport && cd sysreport && python3 src/sysreport.py",
		Note:         "sysreport must run on the target system itself; it inspects local hardware and OS configuration.",
	}, nil
}
