package main

import (
	"testing"

	"clinical-rx-core/internal/domain/audit"
	"clinical-rx-core/internal/domain/identity"
	"clinical-rx-core/internal/platform/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditPolicy_FromConfig(t *testing.T) {
	p := auditPolicy(config.AuditConfig{
		ControlledSubstances: []string{"Morphine"},
		DosageRanges: []config.DosageRangeConfig{
			{Medicine: "Paracetamol", MinMg: 250, MaxMg: 1000, MaxTimesPerDay: 4},
		},
	})

	flagged, reason := p.Evaluate([]audit.MedicineLine{{Name: "morphine", Dosage: "10mg", Frequency: "once daily"}})
	assert.True(t, flagged)
	assert.Contains(t, reason, "Controlled substance")

	flagged, _ = p.Evaluate([]audit.MedicineLine{{Name: "paracetamol", Dosage: "2g", Frequency: "twice daily"}})
	assert.True(t, flagged)

	flagged, _ = p.Evaluate([]audit.MedicineLine{{Name: "Paracetamol", Dosage: "500mg", Frequency: "3 times daily"}})
	assert.False(t, flagged)
}

func TestSeedUsers(t *testing.T) {
	in := seedUsers(config.BootstrapConfig{Users: []config.BootstrapUser{{ID: "admin-1", Name: "Root", Role: "admin"}}})
	require.Len(t, in, 1)
	assert.Equal(t, identity.RoleAdmin, in[0].Role)
}

func TestAuthVerifier_DevModeWhenDisabled(t *testing.T) {
	v, err := authVerifier(config.AuthConfig{})
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = authVerifier(config.AuthConfig{VerifierURL: "https://idp.example.test", APIKey: "k"})
	require.NoError(t, err)
	assert.NotNil(t, v)
}
