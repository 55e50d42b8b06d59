package errors

import (
	"testing"
)

func TestValidateAssetID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "a1b2c3", false},
		{"valid path-like", "src/index.js", false},
		{"valid with colon", "asset:123", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 600)), true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
		{"reserved root", "root", true},
		{"package prefix", "package:a,b", true},
		{"scc prefix", "StronglyConnectedComponent:123", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAssetID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAssetID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid relative", "plans/app.json", false},
		{"valid absolute", "/tmp/plan.json", false},

		{"empty", "", true},
		{"traversal", "../etc/passwd", true},
		{"backslash", "a\\b", true},
		{"null byte", "a\x00b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"redis://localhost:6379/0", false},
		{"rediss://cache:6380", false},
		{"mongodb://localhost:27017", true},
		{"", true},
	}
	for _, tt := range tests {
		err := ValidateURL(tt.input, "redis", "rediss")
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestValidatePlanID(t *testing.T) {
	if err := ValidatePlanID("3f2b6c1e-8d4a-4f7b-9c2e-1a2b3c4d5e6f"); err != nil {
		t.Errorf("ValidatePlanID() error = %v", err)
	}
	if err := ValidatePlanID("../../x"); err == nil {
		t.Error("ValidatePlanID() error = nil, want error")
	}
	if err := ValidatePlanID("3F2B6C1E-8D4A-4F7B-9C2E-1A2B3C4D5E6F"); err == nil {
		t.Error("ValidatePlanID() accepted upper-case id")
	}
}
