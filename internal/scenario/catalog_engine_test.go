package scenario

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bridgehealth/consentbridge/internal/audit"
	"github.com/bridgehealth/consentbridge/internal/authz"
	cachemem "github.com/bridgehealth/consentbridge/internal/cache/memory"
	consentsvc "github.com/bridgehealth/consentbridge/internal/consent"
	storemem "github.com/bridgehealth/consentbridge/internal/store/memory"
)

// newSeededEngine arma el motor completo con el store sembrado con los
// consents que los scenarios presuponen, igual que `bridge seed`.
func newSeededEngine(t *testing.T, c *Catalog) *authz.Engine {
	t.Helper()

	st := storemem.New()
	now := time.Now().UTC()
	for _, s := range c.All() {
		_, err := st.Consents().Upsert(context.Background(), s.ConsentRecord(now))
		require.NoError(t, err, "seed %s", s.ScenarioID)
	}

	rec := audit.NewRecorder(st.Audit())
	svc := consentsvc.NewService(st.Consents(), cachemem.New(time.Minute), time.Minute, rec)
	return authz.NewEngine(authz.New(rec), svc)
}

// TestCatalog_AgainstEngine reproduce cada scenario contra el motor real y
// exige que la decisión coincida con la esperada en el fixture.
func TestCatalog_AgainstEngine(t *testing.T) {
	c := loadCatalog(t)
	eng := newSeededEngine(t, c)

	for _, set := range []struct {
		name string
		recs []Scenario
	}{
		{"authorization", c.Authorization},
		{"role-based", c.RoleBased},
		{"tefca", c.Tefca},
	} {
		t.Run(set.name, func(t *testing.T) {
			for _, s := range set.recs {
				s := s
				t.Run(s.ScenarioID, func(t *testing.T) {
					d, err := eng.Evaluate(context.Background(), s.AccessRequest())
					require.NoError(t, err)
					require.Equal(t, s.ExpectedDecision, d.Decision,
						"%s (%s): %s", s.ScenarioID, s.Name, d.Reason)

					if s.EmergencyOverride && s.ExpectedDecision == "PERMIT" {
						require.True(t, d.BreakGlass, "%s debería marcar break-glass", s.ScenarioID)
					}
				})
			}
		})
	}
}
