package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bridgehealth/consentbridge/internal/domain/model"
)

// Catalog agrupa los tres conjuntos de scenarios.
type Catalog struct {
	Authorization []Scenario
	RoleBased     []Scenario
	Tefca         []Scenario
}

// LoadFile lee y parsea un archivo de scenarios (un JSON array).
func LoadFile(path string) ([]Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []Scenario
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return out, nil
}

// Load lee el catálogo completo desde dir y lo valida.
func Load(dir string) (*Catalog, error) {
	c := &Catalog{}
	var err error
	if c.Authorization, err = LoadFile(filepath.Join(dir, AuthorizationFile)); err != nil {
		return nil, err
	}
	if c.RoleBased, err = LoadFile(filepath.Join(dir, RoleBasedFile)); err != nil {
		return nil, err
	}
	if c.Tefca, err = LoadFile(filepath.Join(dir, TefcaFile)); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// All retorna los 55 scenarios en un solo slice.
func (c *Catalog) All() []Scenario {
	out := make([]Scenario, 0, len(c.Authorization)+len(c.RoleBased)+len(c.Tefca))
	out = append(out, c.Authorization...)
	out = append(out, c.RoleBased...)
	out = append(out, c.Tefca...)
	return out
}

// Validate chequea conteos exactos y vocabulario de cada record.
func (c *Catalog) Validate() error {
	for _, set := range []struct {
		name string
		recs []Scenario
		want int
	}{
		{AuthorizationFile, c.Authorization, AuthorizationCount},
		{RoleBasedFile, c.RoleBased, RoleBasedCount},
		{TefcaFile, c.Tefca, TefcaCount},
	} {
		if len(set.recs) != set.want {
			return fmt.Errorf("%s: expected %d scenarios, got %d", set.name, set.want, len(set.recs))
		}
		seen := make(map[string]struct{}, len(set.recs))
		for i := range set.recs {
			s := &set.recs[i]
			if err := validateScenario(s); err != nil {
				return fmt.Errorf("%s[%d] %s: %w", set.name, i, s.ScenarioID, err)
			}
			if _, dup := seen[s.ScenarioID]; dup {
				return fmt.Errorf("%s: duplicate scenario id %s", set.name, s.ScenarioID)
			}
			seen[s.ScenarioID] = struct{}{}
		}
	}
	return nil
}

func validateScenario(s *Scenario) error {
	if s.ScenarioID == "" {
		return fmt.Errorf("missing scenario id")
	}
	if s.PatientID == "" || s.OrganizationID == "" {
		return fmt.Errorf("patient and organization ids are required")
	}
	if !s.RequestingRole.Valid() {
		return fmt.Errorf("unknown requesting role %q", s.RequestingRole)
	}
	for _, r := range s.AuthorizedRoles {
		if !r.Valid() {
			return fmt.Errorf("unknown authorized role %q", r)
		}
	}
	if s.DataCategory != "" && !s.DataCategory.Valid() {
		return fmt.Errorf("unknown data category %q", s.DataCategory)
	}
	for _, cat := range s.AllowedCategories {
		if !cat.Valid() {
			return fmt.Errorf("unknown allowed category %q", cat)
		}
	}
	if !s.ConsentStatus.Valid() {
		return fmt.Errorf("unknown consent status %q", s.ConsentStatus)
	}
	if s.ExpectedDecision != "PERMIT" && s.ExpectedDecision != "DENY" {
		return fmt.Errorf("expected decision must be PERMIT or DENY, got %q", s.ExpectedDecision)
	}
	return nil
}

// ByCategory filtra scenarios por categoría de datos.
func ByCategory(in []Scenario, cat model.DataCategory) []Scenario {
	return Where(in, func(s *Scenario) bool { return s.DataCategory == cat })
}

// ByRole filtra scenarios cuyo requesting role (o lista autorizada) incluye el rol.
func ByRole(in []Scenario, role model.HealthcareRole) []Scenario {
	return Where(in, func(s *Scenario) bool {
		if s.RequestingRole == role {
			return true
		}
		for _, r := range s.AuthorizedRoles {
			if r == role {
				return true
			}
		}
		return false
	})
}

// RequiringMFA filtra scenarios que exigen MFA.
func RequiringMFA(in []Scenario) []Scenario {
	return Where(in, func(s *Scenario) bool { return s.MultiFactorAuthRequired })
}

// WithEmergencyOverride filtra scenarios break-glass.
func WithEmergencyOverride(in []Scenario) []Scenario {
	return Where(in, func(s *Scenario) bool { return s.EmergencyOverride })
}

// Where filtra con un predicado arbitrario.
func Where(in []Scenario, pred func(*Scenario) bool) []Scenario {
	var out []Scenario
	for i := range in {
		if pred(&in[i]) {
			out = append(out, in[i])
		}
	}
	return out
}
