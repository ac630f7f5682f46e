package camera

import "dahuaptz/internal/dahua"

// PTZ操作のデフォルト値
const (
	DefaultPTZAction = "stop"
	DefaultPTZArg3   = 5
)

// PTZRequest は外部から受け取るPTZ操作。省略された項目はデフォルト値で補う
type PTZRequest struct {
	Action *string  `json:"action,omitempty"`
	Code   *string  `json:"code,omitempty"`
	Arg1   *float64 `json:"arg1,omitempty"`
	Arg2   *float64 `json:"arg2,omitempty"`
	Arg3   *float64 `json:"arg3,omitempty"`
	Arg4   *float64 `json:"arg4,omitempty"`
}

// Command はデフォルト値を補ったPTZコマンドを返す
func (r PTZRequest) Command() dahua.PTZCommand {
	cmd := dahua.PTZCommand{
		Action: DefaultPTZAction,
		Arg3:   DefaultPTZArg3,
	}
	if r.Action != nil {
		cmd.Action = *r.Action
	}
	if r.Code != nil {
		cmd.Code = *r.Code
	}
	if r.Arg1 != nil {
		cmd.Arg1 = *r.Arg1
	}
	if r.Arg2 != nil {
		cmd.Arg2 = *r.Arg2
	}
	if r.Arg3 != nil {
		cmd.Arg3 = *r.Arg3
	}
	if r.Arg4 != nil {
		cmd.Arg4 = *r.Arg4
	}
	return cmd
}
