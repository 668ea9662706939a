package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/magiconair/properties"
	"github.com/shopspring/decimal"

	"github.com/ogulcanaydogan/balchk/pkg/model"
)

// Keys of the properties file. The misspelt value key is kept so existing
// files stay readable.
const (
	KeyLogin               = "login"
	KeyPassword            = "password"
	KeyNotificationStep    = "notification_step"
	KeyNotificationTimeout = "notification_timeout"
	KeyLastCheckedValue    = "last_cheked_value"
	KeyLastCheckTime       = "last_check_time"
)

const propertiesHeader = "Balance checker properties"

// Settings are the non-state values a properties file may carry.
type Settings struct {
	Login     string
	Password  string
	Step      string
	TimeoutMS string
}

// Properties implements StateStore on a Java-style properties file. Keys
// other than the state keys are preserved on save.
type Properties struct {
	path string
}

// NewProperties returns a store for the file at path. The file is created on
// the first save.
func NewProperties(path string) *Properties {
	return &Properties{path: path}
}

// Path returns the file location.
func (p *Properties) Path() string { return p.path }

func (p *Properties) load() (*properties.Properties, error) {
	l := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	props, err := l.LoadFile(p.path)
	if errors.Is(err, fs.ErrNotExist) {
		props = properties.NewProperties()
		props.DisableExpansion = true
		return props, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load properties %s: %w", p.path, err)
	}
	return props, nil
}

// Settings returns the credentials and thresholds stored in the file, if any.
func (p *Properties) Settings() (Settings, error) {
	props, err := p.load()
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		Login:     props.GetString(KeyLogin, ""),
		Password:  props.GetString(KeyPassword, ""),
		Step:      props.GetString(KeyNotificationStep, ""),
		TimeoutMS: props.GetString(KeyNotificationTimeout, ""),
	}, nil
}

// LoadState returns nil unless both state keys are present and parse.
func (p *Properties) LoadState(_ context.Context) (*model.CheckState, error) {
	props, err := p.load()
	if err != nil {
		return nil, err
	}

	rawValue, okValue := props.Get(KeyLastCheckedValue)
	rawTime, okTime := props.Get(KeyLastCheckTime)
	if !okValue || !okTime {
		return nil, nil
	}

	value, err := decimal.NewFromString(rawValue)
	if err != nil {
		return nil, nil
	}
	millis, err := strconv.ParseInt(rawTime, 10, 64)
	if err != nil {
		return nil, nil
	}

	return &model.CheckState{
		LastValue:     value,
		LastCheckedAt: time.UnixMilli(millis).UTC(),
	}, nil
}

func (p *Properties) SaveState(_ context.Context, state model.CheckState) error {
	return p.update(func(props *properties.Properties) error {
		if _, _, err := props.Set(KeyLastCheckedValue, state.LastValue.String()); err != nil {
			return err
		}
		_, _, err := props.Set(KeyLastCheckTime, strconv.FormatInt(state.LastCheckedAt.UnixMilli(), 10))
		return err
	})
}

func (p *Properties) ResetState(_ context.Context) error {
	return p.update(func(props *properties.Properties) error {
		props.Delete(KeyLastCheckedValue)
		props.Delete(KeyLastCheckTime)
		return nil
	})
}

func (p *Properties) Close() error { return nil }

// update applies fn to the current file contents and writes the result back
// through a temporary file in the same directory.
func (p *Properties) update(fn func(*properties.Properties) error) error {
	props, err := p.load()
	if err != nil {
		return err
	}
	if err := fn(props); err != nil {
		return fmt.Errorf("update properties: %w", err)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "#%s\n#%s\n", propertiesHeader, time.Now().Format(time.UnixDate))
	if _, err := props.Write(&buf, properties.UTF8); err != nil {
		return fmt.Errorf("encode properties: %w", err)
	}

	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create properties directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".checker-*.properties")
	if err != nil {
		return fmt.Errorf("create temp properties: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write properties: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close properties: %w", err)
	}
	if err := os.Rename(tmp.Name(), p.path); err != nil {
		return fmt.Errorf("replace properties %s: %w", p.path, err)
	}
	return nil
}
