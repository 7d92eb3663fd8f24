package device

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"device_console/internal/devicesim"
	"device_console/internal/models"
)

// sizeHidden hides bytes.Reader's Len so the transport cannot infer a length.
type sizeHidden struct{ r io.Reader }

func (s sizeHidden) Read(p []byte) (int, error) { return s.r.Read(p) }

func TestUploadFirmware_ReachesDeviceWithProgress(t *testing.T) {
	c, dev := newSimServer(t, devicesim.Options{})
	img := bytes.Repeat([]byte{0x5A}, 64*1024)

	var (
		mu    sync.Mutex
		calls []models.UploadProgress
	)
	err := c.UploadFirmware(context.Background(), models.FirmwareFile{
		Name: "fw.bin", Size: int64(len(img)), Content: bytes.NewReader(img),
	}, func(p models.UploadProgress) {
		mu.Lock()
		calls = append(calls, p)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("UploadFirmware: %v", err)
	}

	name, size, n := dev.Firmware()
	if name != "fw.bin" || size != int64(len(img)) || n != 1 {
		t.Fatalf("device got %q %d %d", name, size, n)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(calls) == 0 {
		t.Fatalf("no progress reported")
	}
	last := calls[len(calls)-1]
	if !last.LengthComputable || last.Sent != last.Total || last.Total <= int64(len(img)) {
		t.Fatalf("unexpected final progress %+v", last)
	}
	for i := 1; i < len(calls); i++ {
		if calls[i].Sent < calls[i-1].Sent {
			t.Fatalf("progress went backwards at %d", i)
		}
	}
}

func TestUploadFirmware_UnknownSize(t *testing.T) {
	c, dev := newSimServer(t, devicesim.Options{})

	var (
		mu   sync.Mutex
		last models.UploadProgress
	)
	err := c.UploadFirmware(context.Background(), models.FirmwareFile{
		Name: "stream.bin", Size: -1, Content: sizeHidden{bytes.NewReader([]byte("abcdef"))},
	}, func(p models.UploadProgress) {
		mu.Lock()
		last = p
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("UploadFirmware: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if last.LengthComputable || last.Total != -1 || last.Sent == 0 {
		t.Fatalf("unexpected progress %+v", last)
	}
	if name, _, n := dev.Firmware(); name != "stream.bin" || n != 1 {
		t.Fatalf("device got %q uploads=%d", name, n)
	}
}

func TestUploadFirmware_NoContent(t *testing.T) {
	c, _ := newSimServer(t, devicesim.Options{})
	if err := c.UploadFirmware(context.Background(), models.FirmwareFile{Name: "x"}, nil); err == nil {
		t.Fatalf("expected error")
	}
}

func TestUploadFirmware_DeviceRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, _ := New(srv.URL)
	err := c.UploadFirmware(context.Background(), models.FirmwareFile{
		Name: "fw.bin", Size: 3, Content: bytes.NewReader([]byte("abc")),
	}, nil)
	var se *StatusError
	if !errors.As(err, &se) || se.Path != pathOTAUpdate {
		t.Fatalf("expected StatusError for %s, got %v", pathOTAUpdate, err)
	}
}

func TestMultipartBody_TotalMatchesBytes(t *testing.T) {
	body, ct, total, err := multipartBody(models.FirmwareFile{Name: "a.bin", Size: 4, Content: bytes.NewReader([]byte("1234"))})
	if err != nil {
		t.Fatalf("multipartBody: %v", err)
	}
	b, _ := io.ReadAll(body)
	if int64(len(b)) != total {
		t.Fatalf("total=%d actual=%d", total, len(b))
	}
	if !bytes.Contains(b, []byte(`name="file"; filename="a.bin"`)) {
		t.Fatalf("missing form part header: %s", b)
	}
	if ct == "" {
		t.Fatalf("empty content type")
	}
}
