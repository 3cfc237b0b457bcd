package publish

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/xink-dev/xink/internal/config"
	"github.com/xink-dev/xink/internal/errors"
	"github.com/xink-dev/xink/internal/logging"
	"github.com/xink-dev/xink/pkg/manifest"
)

// fakeS3 is an in-memory bucket.
type fakeS3 struct {
	mu       sync.Mutex
	objects  map[string][]byte
	types    map[string]string
	order    []string
	putErr   error
	deleted  []string
}

func newFakeS3(existing ...string) *fakeS3 {
	f := &fakeS3{objects: make(map[string][]byte), types: make(map[string]string)}
	for _, k := range existing {
		f.objects[k] = []byte("old")
	}
	return f
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := aws.ToString(in.Key)
	f.objects[key] = data
	f.types[key] = aws.ToString(in.ContentType)
	f.order = append(f.order, key)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := aws.ToString(in.Key)
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := &s3.ListObjectsV2Output{}
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
		}
	}
	return out, nil
}

func writeOutput(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	m := manifest.New()
	m.Routes["src/routes/endpoint.go"] = manifest.Route{Path: "/", File: "endpoints/endpoint.go"}
	if err := m.Write(filepath.Join(dir, manifest.FileName)); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"endpoints/endpoint.go", "endpoints/blog/slug/endpoint.go", "params/int.go"} {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("package x\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestPublish(t *testing.T) {
	dir := writeOutput(t)
	client := newFakeS3()

	res, err := New(client, Options{Bucket: "b", Prefix: "/site/", Logger: logging.Discard()}).Publish(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		"site/endpoints/blog/slug/endpoint.go",
		"site/endpoints/endpoint.go",
		"site/params/int.go",
		"site/manifest.json",
	}
	if !reflect.DeepEqual(client.order, want) {
		t.Errorf("upload order = %v, want %v", client.order, want)
	}
	if !reflect.DeepEqual(res.Uploaded, want) {
		t.Errorf("Uploaded = %v", res.Uploaded)
	}
	if res.Bytes == 0 {
		t.Error("Bytes = 0")
	}
	if got := client.types["site/manifest.json"]; got != "application/json" {
		t.Errorf("manifest content type = %q", got)
	}
	if got := client.types["site/params/int.go"]; !strings.HasPrefix(got, "text/x-go") {
		t.Errorf("go content type = %q", got)
	}
}

func TestPublishPrune(t *testing.T) {
	dir := writeOutput(t)
	client := newFakeS3("site/endpoints/old/endpoint.go", "site/params/int.go", "other/keep.txt")

	res, err := New(client, Options{Bucket: "b", Prefix: "site", Prune: true, Logger: logging.Discard()}).Publish(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(res.Deleted, []string{"site/endpoints/old/endpoint.go"}) {
		t.Errorf("Deleted = %v", res.Deleted)
	}
	if _, ok := client.objects["other/keep.txt"]; !ok {
		t.Error("object outside the prefix was deleted")
	}
}

func TestPublishDryRun(t *testing.T) {
	dir := writeOutput(t)
	client := newFakeS3("stale.go")

	res, err := New(client, Options{Bucket: "b", Prune: true, DryRun: true, Logger: logging.Discard()}).Publish(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(client.order) != 0 || len(client.deleted) != 0 {
		t.Errorf("dry run touched the bucket: put %v, deleted %v", client.order, client.deleted)
	}
	if len(res.Uploaded) != 4 || !reflect.DeepEqual(res.Deleted, []string{"stale.go"}) {
		t.Errorf("res = %+v", res)
	}
}

func TestPublishErrors(t *testing.T) {
	dir := writeOutput(t)

	_, err := New(newFakeS3(), Options{Logger: logging.Discard()}).Publish(context.Background(), dir)
	if !errors.HasCode(err, "E144") {
		t.Errorf("no bucket: err = %v", err)
	}

	_, err = New(newFakeS3(), Options{Bucket: "b", Logger: logging.Discard()}).Publish(context.Background(), t.TempDir())
	if !errors.HasCode(err, "E220") {
		t.Errorf("no manifest: err = %v", err)
	}

	denied := stderrors.New("access denied")
	client := newFakeS3()
	client.putErr = denied
	_, err = New(client, Options{Bucket: "b", Logger: logging.Discard()}).Publish(context.Background(), dir)
	if !errors.HasCode(err, "E146") || !stderrors.Is(err, denied) {
		t.Errorf("put failure: err = %v", err)
	}
}

func TestNewClient(t *testing.T) {
	if _, err := NewClient(config.PublishConfig{}); !errors.HasCode(err, "E144") {
		t.Errorf("empty bucket: err = %v", err)
	}

	c, err := NewClient(config.PublishConfig{Bucket: "b", Endpoint: "http://localhost:9000"})
	if err != nil {
		t.Fatal(err)
	}
	opts := c.Options()
	if opts.Region != DefaultRegion || !opts.UsePathStyle || aws.ToString(opts.BaseEndpoint) != "http://localhost:9000" {
		t.Errorf("options = region %q, path style %v, endpoint %q", opts.Region, opts.UsePathStyle, aws.ToString(opts.BaseEndpoint))
	}
}

func TestEnvCredentials(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	if _, err := envCredentials(context.Background()); !errors.HasCode(err, "E146") {
		t.Errorf("err = %v", err)
	}

	t.Setenv("AWS_ACCESS_KEY_ID", "id")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	creds, err := envCredentials(context.Background())
	if err != nil || creds.AccessKeyID != "id" {
		t.Errorf("creds = %+v, err = %v", creds, err)
	}
}
