package signal

import (
	"encoding/json"
	"strings"
	"testing"
)

// TestSignalWireEncoding: the 64-bit identifier fields travel as JSON strings
// so that JavaScript peers keep full precision.
func TestSignalWireEncoding(t *testing.T) {
	sig := Signal{
		Type:         TypeConnectRequest,
		ConnectionID: 18446744073709551615, // max uint64
		NetworkID:    9007199254740993,     // first integer JS cannot hold
		Payload:      "v=0",
	}

	data, err := json.Marshal(sig)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"18446744073709551615"`) {
		t.Errorf("ConnectionID not encoded as string: %s", data)
	}
	if !strings.Contains(string(data), `"9007199254740993"`) {
		t.Errorf("NetworkID not encoded as string: %s", data)
	}

	var decoded Signal
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded != sig {
		t.Errorf("round trip changed the signal: %+v != %+v", decoded, sig)
	}
}

// TestCredentialsPayload: the Credentials control message carries the ICE
// server list as a JSON payload string inside a regular signal.
func TestCredentialsPayload(t *testing.T) {
	creds := Credentials{ICEServers: []ICEServer{{
		URLs:       []string{"turn:turn.example.net:3478"},
		Username:   "user",
		Credential: "pass",
	}}}
	payload, err := json.Marshal(creds)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	sig := Signal{Type: TypeCredentials, Payload: string(payload)}
	var decoded Credentials
	if err := json.Unmarshal([]byte(sig.Payload), &decoded); err != nil {
		t.Fatalf("Unmarshal payload: %v", err)
	}
	if len(decoded.ICEServers) != 1 || decoded.ICEServers[0].Username != "user" {
		t.Errorf("credentials round trip: %+v", decoded)
	}
}
