package build

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/cotton-web/cotton/internal/config"
)

func newTestProject(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "cotton.json"), []byte(`{
  "name": "demo",
  "routes": {
    "/": {"page": "pages/home"},
    "/user/:id": {"page": "pages/user"}
  }
}`), 0o644); err != nil {
		t.Fatal(err)
	}

	public := filepath.Join(dir, "public")
	if err := os.MkdirAll(filepath.Join(public, "img"), 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"global.css":   "body { margin: 0 }",
		"app.js":       "console.log('hi')",
		"img/logo.png": "not-really-a-png",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(public, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return cfg
}

func TestBuildCopiesAndFingerprints(t *testing.T) {
	cfg := newTestProject(t)
	builder := New(cfg, Options{SkipBinary: true})

	result, err := builder.Build(context.Background())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	cssOut, ok := result.Manifest["global.css"]
	if !ok {
		t.Fatal("global.css missing from manifest")
	}
	if !strings.HasPrefix(cssOut, "global.") || !strings.HasSuffix(cssOut, ".css") || cssOut == "global.css" {
		t.Errorf("css output name = %q, want fingerprinted", cssOut)
	}
	if _, err := os.Stat(filepath.Join(result.Public, cssOut)); err != nil {
		t.Errorf("fingerprinted css not written: %v", err)
	}

	// Images keep stable names.
	if got := result.Manifest["img/logo.png"]; got != "img/logo.png" {
		t.Errorf("logo output name = %q, want unchanged", got)
	}
}

func TestBuildRouteSnapshotPreservesOrder(t *testing.T) {
	cfg := newTestProject(t)
	builder := New(cfg, Options{SkipBinary: true})

	result, err := builder.Build(context.Background())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if result.Routes != 2 {
		t.Errorf("Routes = %d, want 2", result.Routes)
	}

	data, err := os.ReadFile(filepath.Join(filepath.Dir(result.Public), "routes.json"))
	if err != nil {
		t.Fatal(err)
	}

	var rt config.RouteTable
	if err := json.Unmarshal(data, &rt); err != nil {
		t.Fatal(err)
	}
	if len(rt) != 2 || rt[0].Key != "/" || rt[1].Key != "/user/:id" {
		t.Errorf("snapshot = %+v", rt)
	}
}

func TestBuildWritesManifestFile(t *testing.T) {
	cfg := newTestProject(t)
	builder := New(cfg, Options{SkipBinary: true})

	result, err := builder.Build(context.Background())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(filepath.Dir(result.Public), "manifest.json"))
	if err != nil {
		t.Fatal(err)
	}
	var manifest map[string]string
	if err := json.Unmarshal(data, &manifest); err != nil {
		t.Fatal(err)
	}
	if len(manifest) != len(result.Manifest) {
		t.Errorf("manifest on disk has %d entries, result has %d", len(manifest), len(result.Manifest))
	}
}

func TestIsFingerprintable(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"global.css", true},
		{"app.js", true},
		{"deep/nested/file.CSS", true},
		{"index.html", false},
		{"img/logo.png", false},
	}
	for _, tt := range tests {
		if got := isFingerprintable(tt.name); got != tt.want {
			t.Errorf("isFingerprintable(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCacheControlFor(t *testing.T) {
	if got := cacheControlFor("global.2bb80d53.css"); !strings.Contains(got, "immutable") {
		t.Errorf("fingerprinted asset got %q", got)
	}
	if got := cacheControlFor("global.css"); strings.Contains(got, "immutable") {
		t.Errorf("plain asset got %q", got)
	}
}

// fakeS3 records every PutObject call.
type fakeS3 struct {
	keys         []string
	contentTypes map[string]string
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.contentTypes == nil {
		f.contentTypes = make(map[string]string)
	}
	f.keys = append(f.keys, *params.Key)
	if params.ContentType != nil {
		f.contentTypes[*params.Key] = *params.ContentType
	}
	return &s3.PutObjectOutput{}, nil
}

func TestDeployUploadsEverything(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "public"), 0o755); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(dir, "manifest.json"), []byte("{}"), 0o644)
	os.WriteFile(filepath.Join(dir, "public", "global.css"), []byte("body{}"), 0o644)

	fake := &fakeS3{}
	deployer := NewDeployerWithClient(fake, DeployConfig{Bucket: "my-bucket", Prefix: "releases/v1"})

	n, err := deployer.Deploy(context.Background(), dir)
	if err != nil {
		t.Fatalf("Deploy failed: %v", err)
	}
	if n != 2 {
		t.Errorf("uploaded = %d, want 2", n)
	}

	want := map[string]bool{
		"releases/v1/manifest.json":     true,
		"releases/v1/public/global.css": true,
	}
	for _, key := range fake.keys {
		if !want[key] {
			t.Errorf("unexpected key %q", key)
		}
	}
	if ct := fake.contentTypes["releases/v1/public/global.css"]; !strings.Contains(ct, "text/css") {
		t.Errorf("css content type = %q", ct)
	}
}

func TestNewDeployerRequiresBucket(t *testing.T) {
	if _, err := NewDeployer(context.Background(), DeployConfig{}); err == nil {
		t.Fatal("expected error for missing bucket")
	}
}
