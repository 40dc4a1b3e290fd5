package config

import (
	"fmt"
	"os"
)

func Template() string {
	return pulsectlTemplate
}

func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(pulsectlTemplate), 0o600)
}

const pulsectlTemplate = `name = "pulsectl"

[device]
payload_out_line = "port0/line1"
payload_in_line = "port0/line0"
timing_out_line = "port0/line3"
timing_in_line = "port0/line2"
trigger_source = "di/StartTrigger"

[bitcode]
frame_bits = 68
repeat_factor = 40
digit_sample_hz = 1000

[transmit]
poll_interval = "10us"

[producer]
interval = "1s"
iterations = 25

[http]
addr = ":9000"
cors_origins = ["http://localhost:3000"]
`
