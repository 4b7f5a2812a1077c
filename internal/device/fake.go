package device

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Fake is an in-memory Transport for tests and dry runs. Shell answers
// come from Responses keyed by command; Pull copies from Files keyed by
// remote path.
type Fake struct {
	DevicesOutput string
	Responses     map[string]string
	Failures      map[string]error
	Files         map[string]string

	mu    sync.Mutex
	Calls []string
}

func (f *Fake) record(call string) {
	f.mu.Lock()
	f.Calls = append(f.Calls, call)
	f.mu.Unlock()
}

func (f *Fake) Devices(ctx context.Context) (string, error) {
	f.record("devices")
	if err, ok := f.Failures["devices"]; ok {
		return "", err
	}
	return f.DevicesOutput, nil
}

func (f *Fake) Shell(ctx context.Context, serial, command string) (string, error) {
	f.record("shell " + command)
	if err, ok := f.Failures[command]; ok {
		return "", &TransportError{Args: []string{"-s", serial, "shell", command}, Err: err}
	}
	out, ok := f.Responses[command]
	if !ok {
		return "", nil
	}
	return out, nil
}

func (f *Fake) Pull(ctx context.Context, serial, remote, local string) error {
	f.record("pull " + remote)
	if err, ok := f.Failures["pull "+remote]; ok {
		return &TransportError{Args: []string{"-s", serial, "pull", remote}, Err: err}
	}
	src, ok := f.Files[remote]
	if !ok {
		return &TransportError{Args: []string{"-s", serial, "pull", remote}, Err: fmt.Errorf("remote object %s does not exist", remote)}
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(local), 0755); err != nil {
		return err
	}
	return os.WriteFile(local, data, 0644)
}
