package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/dmitrijs2005/rfcdiscuss/internal/common"
	"github.com/dmitrijs2005/rfcdiscuss/internal/logging"
	"github.com/dmitrijs2005/rfcdiscuss/internal/server"
	"github.com/dmitrijs2005/rfcdiscuss/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	t      *testing.T
	dsn    string
	out    *bytes.Buffer
	errOut *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	for _, k := range []string{"RFC_CONFIG", config.EnvDatabaseDriver, config.EnvDatabaseDSN, config.EnvSecretKey, config.EnvLogLevel} {
		t.Setenv(k, "")
	}
	return &harness{t: t, dsn: filepath.Join(t.TempDir(), "cli.db"), out: &bytes.Buffer{}, errOut: &bytes.Buffer{}}
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	h.out.Reset()
	h.errOut.Reset()
	full := append([]string{"-d", h.dsn, "-s", "test-secret"}, args...)
	err := NewApp(h.out, h.errOut).Run(context.Background(), full)
	return h.out.String(), err
}

func field(t *testing.T, out, name string) string {
	t.Helper()
	m := regexp.MustCompile(`(?m)^` + name + `: (\S+)$`).FindStringSubmatch(out)
	require.Len(t, m, 2, "no %s in %q", name, out)
	return m[1]
}

func TestRun_NoCommandPrintsUsage(t *testing.T) {
	h := newHarness(t)

	_, err := h.run()
	assert.ErrorIs(t, err, ErrUsage)
	assert.Contains(t, h.errOut.String(), "request-login")

	_, err = h.run("help")
	assert.NoError(t, err)
}

func TestRun_UnknownCommandAndArity(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("frobnicate")
	assert.ErrorIs(t, err, ErrUsage)

	_, err = h.run("request-login")
	assert.ErrorIs(t, err, ErrUsage)

	_, err = h.run("counts", "extra")
	assert.ErrorIs(t, err, ErrUsage)

	_, err = h.run("verify-login", "abc", "123456")
	assert.ErrorIs(t, err, ErrUsage)
}

func TestRun_Migrate(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("migrate")
	require.NoError(t, err)
	assert.Equal(t, "schema is up to date\n", out)
	assert.Contains(t, h.errOut.String(), `"run_id"`)
}

func TestRun_LoginAndCommentFlow(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("request-login", "Op@Example.com")
	require.NoError(t, err)
	userID := field(t, out, "user_id")
	code := field(t, out, "code")
	assert.Equal(t, "op@example.com", field(t, out, "email"))

	out, err = h.run("verify-login", userID, code)
	require.NoError(t, err)
	token := field(t, out, "token")

	_, err = h.run("verify-login", userID, code)
	assert.ErrorIs(t, err, common.ErrorAuthFailure)

	out, err = h.run("whoami", token)
	require.NoError(t, err)
	assert.Equal(t, "op@example.com", field(t, out, "email"))

	_, err = h.run("comment", token, "rfc-42", "first", "remark")
	require.NoError(t, err)
	_, err = h.run("comment", token, "rfc-42", "second")
	require.NoError(t, err)

	out, err = h.run("comments", "rfc-42")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], "\top@example.com\tfirst remark"), lines[0])
	assert.True(t, strings.HasSuffix(lines[1], "\tsecond"), lines[1])

	out, err = h.run("counts")
	require.NoError(t, err)
	assert.Equal(t, "rfc-42\t2\n", out)

	out, err = h.run("purge-tokens")
	require.NoError(t, err)
	assert.Equal(t, "purged 0 expired login codes\n", out)
}

func TestRun_VerifyPromptsForCode(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("request-login", "p@example.com")
	require.NoError(t, err)
	userID := field(t, out, "user_id")
	code := field(t, out, "code")

	orig := readPassword
	readPassword = func(fd int) ([]byte, error) { return []byte(code + "\n"), nil }
	defer func() { readPassword = orig }()

	out, err = h.run("verify-login", userID)
	require.NoError(t, err)
	assert.NotEmpty(t, field(t, out, "token"))
	assert.Contains(t, h.errOut.String(), "Enter code: ")
}

func TestRun_PromptError(t *testing.T) {
	h := newHarness(t)

	orig := readPassword
	readPassword = func(fd int) ([]byte, error) { return nil, errors.New("not a terminal") }
	defer func() { readPassword = orig }()

	_, err := h.run("verify-login", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a terminal")
}

func TestRun_InvalidToken(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("whoami", "garbage")
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	_, err = h.run("comment", "garbage", "rfc-1", "hello")
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestRun_ConfigError(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("migrate", "-b", "oracle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config")

	_, err = h.run("migrate", "-l", "loud")
	require.Error(t, err)
}

func TestRun_ServerInitFailure(t *testing.T) {
	h := newHarness(t)

	orig := newServerApp
	newServerApp = func(ctx context.Context, c *config.Config, logger logging.Logger) (*server.App, error) {
		return nil, common.ErrorSchema
	}
	defer func() { newServerApp = orig }()

	_, err := h.run("migrate")
	assert.ErrorIs(t, err, common.ErrorSchema)
}
