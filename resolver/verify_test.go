package resolver

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProbeCommand(t *testing.T) {
	tests := []struct {
		target Target
		want   string
	}{
		{Target{Kind: KindNPM, Spec: "react@18.2.0"}, "npm list react"},
		{Target{Kind: KindNPM, Spec: "@types/node@20.1.0"}, "npm list @types/node"},
		{Target{Kind: KindNPM, Spec: "package.json", FileMode: true}, "npm list"},
		{Target{Kind: KindPython, Spec: "requests==2.31.0", Env: EnvVenv}, "pip show requests"},
		{Target{Kind: KindPython, Spec: "requirements.txt", FileMode: true, Env: EnvVenv}, "pip list"},
		{Target{Kind: KindPython, Spec: "numpy>=1.26", Env: EnvConda}, "conda list numpy"},
		{Target{Kind: KindPython, Spec: "environment.txt", FileMode: true, Env: EnvConda}, "conda list"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ProbeCommand(tt.target))
		})
	}
}

func TestVerifierReportsProbeResult(t *testing.T) {
	target := Target{Kind: KindPython, Spec: "requests==2.31.0"}

	var out bytes.Buffer
	runner := newScriptedRunner().on("pip show requests", ok(), fail(1, "WARNING: Package(s) not found: requests"))
	v := NewVerifier(runner, &out)

	probe, result := v.Verify(context.Background(), target)
	assert.Equal(t, "pip show requests", probe)
	assert.True(t, result.Success())
	assert.Contains(t, out.String(), "Verifying installation: pip show requests")
	assert.Contains(t, out.String(), "Verification successful")

	out.Reset()
	_, result = v.Verify(context.Background(), target)
	assert.False(t, result.Success())
	assert.Equal(t, "WARNING: Package(s) not found: requests", result.Stderr)
	assert.Contains(t, out.String(), "Verification failed (exit code 1)")
}
