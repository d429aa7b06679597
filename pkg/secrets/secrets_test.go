package secrets

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCredential(t *testing.T) {
	doc := `{"type":"service_account","client_email":"bot@example.iam.gserviceaccount.com"}`

	tests := []struct {
		name    string
		raw     string
		encoded string
		want    string
		wantErr bool
	}{
		{name: "raw wins", raw: doc, encoded: "!!!", want: doc},
		{name: "base64", encoded: base64.StdEncoding.EncodeToString([]byte(doc)), want: doc},
		{name: "unpadded base64", encoded: base64.RawStdEncoding.EncodeToString([]byte(doc)), want: doc},
		{name: "not configured"},
		{name: "invalid base64", encoded: "%%%not-base64%%%", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveCredential(tt.raw, tt.encoded)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestVault_ApplyKV2(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/secret/data/cashflow-diagnosis", r.URL.Path)
		assert.Equal(t, "root", r.Header.Get("X-Vault-Token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"data":{"CF_TEST_OPENAI_KEY":"sk-test","CF_TEST_EXISTING":"from-vault","CF_TEST_SA":{"type":"service_account"}}}}`))
	}))
	defer srv.Close()

	t.Setenv("CF_TEST_EXISTING", "from-env")
	t.Setenv("CF_TEST_OPENAI_KEY", "")
	t.Setenv("CF_TEST_SA", "")

	v := NewVault(VaultConfig{Enabled: true, Addr: srv.URL, Token: "root", Mount: "secret", Path: "cashflow-diagnosis", KVVersion: 2})
	res, err := v.Apply(context.Background())
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"CF_TEST_OPENAI_KEY", "CF_TEST_SA"}, res.Loaded)
	assert.Equal(t, []string{"CF_TEST_EXISTING"}, res.Skipped)
	assert.Equal(t, "sk-test", os.Getenv("CF_TEST_OPENAI_KEY"))
	assert.Equal(t, "from-env", os.Getenv("CF_TEST_EXISTING"))
	assert.JSONEq(t, `{"type":"service_account"}`, os.Getenv("CF_TEST_SA"))
}

func TestVault_DisabledIsNoop(t *testing.T) {
	res, err := NewVault(VaultConfig{}).Apply(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Enabled)
	assert.Empty(t, res.Loaded)
}

func TestVault_FetchErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "permission denied", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewVault(VaultConfig{Addr: srv.URL, Token: "t", Mount: "secret", Path: "p", KVVersion: 1}).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")

	_, err = NewVault(VaultConfig{}).Fetch(context.Background())
	assert.Error(t, err)
}

func TestBuildVaultURL(t *testing.T) {
	u, err := buildVaultURL("http://vault:8200/", "/secret/", "/app", 1)
	require.NoError(t, err)
	assert.Equal(t, "http://vault:8200/v1/secret/app", u)

	u, err = buildVaultURL("http://vault:8200", "secret", "app", 2)
	require.NoError(t, err)
	assert.Equal(t, "http://vault:8200/v1/secret/data/app", u)
}
