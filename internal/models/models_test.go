package models

import (
	"encoding/json"
	"testing"
)

func TestModalResponseValidate(t *testing.T) {
	tests := []struct {
		name string
		resp ModalResponse
		want error
	}{
		{"valid", ModalResponse{Slot: 2, AnswerValue: "energy_envelope"}, nil},
		{"slot zero", ModalResponse{Slot: 0, AnswerValue: "x"}, ErrInvalidQuestionSlot},
		{"slot five", ModalResponse{Slot: 5, AnswerValue: "x"}, ErrInvalidQuestionSlot},
		{"blank answer", ModalResponse{Slot: 1, AnswerValue: "  "}, ErrEmptyAnswer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.resp.Validate(); got != tt.want {
				t.Errorf("Validate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUserConversionContextResponse(t *testing.T) {
	uc := UserConversionContext{
		Responses: []ModalResponse{{Slot: 1, AnswerValue: "fatigue"}, {Slot: 3, AnswerValue: "60"}},
		Defaulted: []ContextPart{PartUTM},
	}
	if got := uc.Response(3).AnswerValue; got != "60" {
		t.Errorf("expected slot 3 answer '60', got %q", got)
	}
	if got := uc.Response(4); got.Slot != 4 || got.AnswerValue != "" {
		t.Errorf("expected zero response for missing slot, got %+v", got)
	}
	if !uc.UsedDefault(PartUTM) || uc.UsedDefault(PartSession) {
		t.Error("UsedDefault did not reflect Defaulted list")
	}
}

func TestEnumValidation(t *testing.T) {
	if !IsValidPriority(PriorityPainInflammation) || IsValidPriority("headache") {
		t.Error("IsValidPriority mismatch")
	}
	if !IsValidIntent(IntentPredictFlares) || IsValidIntent("") {
		t.Error("IsValidIntent mismatch")
	}
	if !IsValidCampaignKind(CampaignKindPersona) || IsValidCampaignKind("banner") {
		t.Error("IsValidCampaignKind mismatch")
	}
	if !IsValidExperimentEventType(EventConvert) || IsValidExperimentEventType("click") {
		t.Error("IsValidExperimentEventType mismatch")
	}
}

func TestAuthCallbackValidate(t *testing.T) {
	cb := AuthCallback{Email: " "}
	if err := cb.Validate(); err != ErrMissingEmail {
		t.Errorf("expected ErrMissingEmail, got %v", err)
	}
	cb.Email = "maya@example.com"
	if err := cb.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAPIEnvelopes(t *testing.T) {
	resp := Error("boom")
	if resp.Status != string(APIStatusError) || resp.Message != "boom" {
		t.Errorf("unexpected error response: %+v", resp)
	}
	data, err := json.Marshal(Success(map[string]int{"n": 1}))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `{"status":"ok","result":{"n":1}}` {
		t.Errorf("unexpected JSON: %s", data)
	}
}

func TestInitialOnboardingStateJSON(t *testing.T) {
	data, err := json.Marshal(InitialOnboardingState())
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded["priority"] != nil || decoded["isComplete"] != false {
		t.Errorf("unexpected initial state JSON: %s", data)
	}
	if conds, ok := decoded["conditions"].([]interface{}); !ok || len(conds) != 0 {
		t.Errorf("expected empty conditions array, got %v", decoded["conditions"])
	}
}
