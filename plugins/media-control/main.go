// Package main provides a media-control plugin.
// It taps the platform media keys through robotgo.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-vgo/robotgo"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action     string          `json:"action"`
	Gesture    string          `json:"gesture"`
	Handedness string          `json:"handedness"`
	Params     json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// repeatParams lets volume actions tap their key more than once.
type repeatParams struct {
	Repeat int `json:"repeat"`
}

// mediaKeys maps action names to robotgo key names.
var mediaKeys = map[string]string{
	"play-pause":  "audio_play",
	"next":        "audio_next",
	"previous":    "audio_prev",
	"volume-up":   "audio_vol_up",
	"volume-down": "audio_vol_down",
	"mute":        "audio_mute",
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	key, ok := mediaKeys[req.Action]
	if !ok {
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}

	repeat := 1
	if len(req.Params) > 0 {
		var p repeatParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			writeErrorResponse(fmt.Sprintf("invalid params: %v", err))
			return
		}
		if p.Repeat > 0 {
			repeat = p.Repeat
		}
	}

	for i := 0; i < repeat; i++ {
		if err := robotgo.KeyTap(key); err != nil {
			writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
			return
		}
	}

	writeSuccessResponse()
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}

// writeSuccessResponse writes a success response to stdout.
func writeSuccessResponse() {
	json.NewEncoder(os.Stdout).Encode(Response{Success: true})
}
