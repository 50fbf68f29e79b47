package ipc

import (
	"encoding/json"
	"testing"
)

func TestParseRequestWithPayload(t *testing.T) {
	line := []byte(`{"command":"RESIZE_DIVIDER","payload":{"division":-1,"index":0,"delta_px":192}}` + "\n")

	req, err := ParseRequest(line)
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if req.Command != CommandResizeDivider {
		t.Fatalf("Command = %q, want %q", req.Command, CommandResizeDivider)
	}

	var p ResizeDividerPayload
	if err := json.Unmarshal(req.Payload, &p); err != nil {
		t.Fatalf("payload unmarshal: %v", err)
	}
	if p.Division != -1 || p.Index != 0 || p.DeltaPx != 192 {
		t.Fatalf("payload = %+v", p)
	}
}

func TestParseRequestRejectsGarbage(t *testing.T) {
	if _, err := ParseRequest([]byte("not json\n")); err == nil {
		t.Fatal("ParseRequest accepted malformed input")
	}
}

func TestOKResponseCarriesData(t *testing.T) {
	resp, err := NewOKResponse(ScanResultData{Scanned: true, Divisions: 2, Slots: 3})
	if err != nil {
		t.Fatalf("NewOKResponse: %v", err)
	}

	data, err := resp.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var back Response
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Status != "OK" {
		t.Fatalf("Status = %q", back.Status)
	}
	var result ScanResultData
	if err := json.Unmarshal(back.Data, &result); err != nil {
		t.Fatalf("data unmarshal: %v", err)
	}
	if !result.Scanned || result.Divisions != 2 || result.Slots != 3 {
		t.Fatalf("result = %+v", result)
	}
}

func TestErrorResponseOmitsData(t *testing.T) {
	resp := NewErrorResponse("no monitor selected")
	if resp.Status != "ERROR" || resp.Error != "no monitor selected" {
		t.Fatalf("resp = %+v", resp)
	}
	data, err := resp.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back Response
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(back.Data) != 0 {
		t.Fatalf("Data = %s, want empty", back.Data)
	}
}
