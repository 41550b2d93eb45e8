package cli

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/scratchmap/internal/client/config"
	"github.com/dmitrijs2005/scratchmap/internal/client/connectivity"
	"github.com/dmitrijs2005/scratchmap/internal/client/remote/remotetest"
	"github.com/dmitrijs2005/scratchmap/internal/common"
	"github.com/dmitrijs2005/scratchmap/internal/logging"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	*remotetest.Memory
	token string
}

func (f *fakeBackend) Register(_ context.Context, username, _ string) (string, error) {
	return "id-" + username, nil
}

func (f *fakeBackend) Login(_ context.Context, username, password string) (string, string, error) {
	if password != "pw" {
		return "", "", common.ErrorUnauthorized
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "id-" + username,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	s, err := tok.SignedString([]byte("secret"))
	return "id-" + username, s, err
}

func (f *fakeBackend) SetAccessToken(token string) { f.token = token }

func (f *fakeBackend) PresignImageUpload(context.Context, string, string) (string, string, error) {
	return "", "", errors.New("uploads not supported")
}

type harness struct {
	cfg     *config.Config
	backend *fakeBackend
	online  *connectivity.Flag
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	withTerminal(t, false, nil)

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DatabasePath = t.TempDir()
	cfg.GeocoderURL = ""

	return &harness{
		cfg:     cfg,
		backend: &fakeBackend{Memory: remotetest.NewMemory()},
		online:  connectivity.NewFlag(false),
	}
}

func (h *harness) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root, closeApp := NewRootCommand(h.cfg,
		WithBackend(h.backend),
		WithChecker(h.online),
		WithLogger(logging.Nop()),
	)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	require.NoError(t, closeApp())
	return out.String(), err
}

func TestCLI_OfflineThenSync(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "", "scratch", "visit", "52.52", "13.405")
	require.NoError(t, err)
	assert.Contains(t, out, "Scratched")

	out, err = h.run(t, "", "scratch", "visit", "52.52005,13.405")
	require.NoError(t, err)
	assert.Contains(t, out, "Already scratched nearby")

	out, err = h.run(t, "", "discovery", "add", "--title", "Fountain", "--desc", "old")
	require.NoError(t, err)
	assert.Contains(t, out, "Added")
	assert.Contains(t, out, common.UnknownPlace)

	out, err = h.run(t, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "offline")
	assert.Regexp(t, `queued discovery actions\s+1`, out)
	assert.Regexp(t, `queued scratch points\s+1`, out)

	_, err = h.run(t, "ann\npw\n", "login")
	require.Error(t, err, "login needs the server")
	assert.Empty(t, h.backend.Calls())

	h.online.Set(true)
	out, err = h.run(t, "ann\npw\n", "login")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as ann")
	assert.NotEmpty(t, h.backend.token)

	out, err = h.run(t, "", "sync", "-q")
	require.NoError(t, err)
	assert.Contains(t, out, "queued discoveries: 1 sent, 0 failed, 0 kept")
	assert.Contains(t, out, "queued scratches:   1 sent, 0 failed, 0 kept")

	assert.Len(t, h.backend.IDs(common.CollectionPings), 1)
	doc := h.backend.Doc(common.CollectionScratches, "id-ann")
	require.NotNil(t, doc)
	assert.Len(t, doc["points"], 1)

	out, err = h.run(t, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "online")
	assert.Contains(t, out, "ann")
	assert.Regexp(t, `queued discovery actions\s+0`, out)
}

func TestCLI_DiscoveryLifecycle(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "", "discovery", "add", "--title", "Nowhere")
	require.Error(t, err)

	_, err = h.run(t, "", "discovery", "add", "--title", "Half", "--lat", "1")
	require.ErrorIs(t, err, common.ErrorValidation)

	_, err = h.run(t, "Prompted\n", "discovery", "add", "--lat", "48.85", "--lon", "2.35")
	require.NoError(t, err)

	out, err := h.run(t, "", "discovery", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "Prompted")
	id := strings.Fields(strings.Split(out, "\n")[1])[0]

	_, err = h.run(t, "", "discovery", "edit", id)
	require.ErrorIs(t, err, common.ErrorValidation)

	_, err = h.run(t, "", "discovery", "edit", id, "--title", "Renamed")
	require.NoError(t, err)

	out, err = h.run(t, "", "discovery", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Renamed")
	assert.Contains(t, out, "48.850000, 2.350000")

	_, err = h.run(t, "", "discovery", "rm", id)
	require.NoError(t, err)

	out, err = h.run(t, "", "discovery", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "No discoveries yet")
}

func TestCLI_WatchAndClean(t *testing.T) {
	h := newHarness(t)

	stdin := "# walk\n52.52 13.405\n52.53 13.405\nnonsense\n52.52 13.405\n"
	out, err := h.run(t, stdin, "watch")
	require.NoError(t, err)
	assert.Contains(t, out, "3 positions, 2 new scratches")

	out, err = h.run(t, "", "scratch", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "2 points")

	out, err = h.run(t, "", "scratch", "clean", "-q")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 0 duplicate points")
}

func TestCLI_RenderAndShader(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "", "scratch", "visit", "52.52", "13.405")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "fog.png")
	_, err = h.run(t, "", "render", "-o", path, "--width", "200", "--height", "100", "-z", "16")
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())

	// centre is scratched, so the ground shows through
	r, g, b, _ := img.At(100, 50).RGBA()
	assert.Equal(t, uint32(groundColor.R)*0x101, r)
	assert.Equal(t, uint32(groundColor.G)*0x101, g)
	assert.Equal(t, uint32(groundColor.B)*0x101, b)

	_, err = h.run(t, "", "shader", "sideways")
	require.ErrorIs(t, err, common.ErrorValidation)

	_, err = h.run(t, "", "shader", "on")
	require.NoError(t, err)
	out, err := h.run(t, "", "status")
	require.NoError(t, err)
	assert.Regexp(t, `fog texture\s+true`, out)
}
