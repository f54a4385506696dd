package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bridgehealth/consentbridge/internal/domain/model"
)

func testIssuer() *Issuer {
	return NewIssuer("consentbridge-test", []byte("0123456789abcdef0123456789abcdef"))
}

func TestIssuer_SignParse_RoundTrip(t *testing.T) {
	iss := testIssuer()

	p := &model.Principal{
		UserID:             "dr-1",
		OrganizationID:     "ORG-001",
		Roles:              []model.HealthcareRole{model.RolePhysician, model.RoleTefcaParticipant},
		MFACompleted:       true,
		AuthorizedPatients: []string{"PAT-1"},
	}

	raw, err := iss.Sign(p)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	got, err := iss.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, p.UserID, got.UserID)
	require.Equal(t, p.OrganizationID, got.OrganizationID)
	require.Equal(t, p.Roles, got.Roles)
	require.True(t, got.MFACompleted)
	require.Equal(t, p.AuthorizedPatients, got.AuthorizedPatients)
}

func TestIssuer_Sign_RequiresUserID(t *testing.T) {
	iss := testIssuer()

	_, err := iss.Sign(nil)
	require.Error(t, err)
	_, err = iss.Sign(&model.Principal{})
	require.Error(t, err)
}

func TestIssuer_Parse_WrongSecret(t *testing.T) {
	raw, err := testIssuer().Sign(&model.Principal{UserID: "u1"})
	require.NoError(t, err)

	other := NewIssuer("consentbridge-test", []byte("another-secret-another-secret!!!"))
	_, err = other.Parse(raw)
	require.Error(t, err)
}

func TestIssuer_Parse_WrongIssuer(t *testing.T) {
	raw, err := testIssuer().Sign(&model.Principal{UserID: "u1"})
	require.NoError(t, err)

	other := NewIssuer("somebody-else", []byte("0123456789abcdef0123456789abcdef"))
	_, err = other.Parse(raw)
	require.Error(t, err)
}

func TestIssuer_Parse_Expired(t *testing.T) {
	iss := testIssuer()
	iss.AccessTTL = -time.Minute

	raw, err := iss.Sign(&model.Principal{UserID: "u1"})
	require.NoError(t, err)

	_, err = iss.Parse(raw)
	require.Error(t, err)
}

func TestIssuer_Parse_Garbage(t *testing.T) {
	_, err := testIssuer().Parse("not.a.token")
	require.Error(t, err)
	_, err = testIssuer().Parse("")
	require.Error(t, err)
}
