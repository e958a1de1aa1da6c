//go:build linux

package infra

import (
	"context"
	"encoding/binary"
	"strings"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_block/internal/domain"
)

// X11Provider reads the EWMH active window from the X server and maps it
// to an application ID (process name, WM_CLASS as fallback).
type X11Provider struct {
	logger *zap.Logger
	procs  domain.ProcessManager

	mu    sync.Mutex
	conn  *xgb.Conn
	root  xproto.Window
	atoms map[string]xproto.Atom
}

var x11AtomNames = []string{"_NET_ACTIVE_WINDOW", "_NET_WM_PID", "WM_CLASS"}

// NewFrontmostProvider returns the X11 provider. The display connection
// is opened lazily and re-opened after failures.
func NewFrontmostProvider(logger *zap.Logger) domain.FrontmostProvider {
	return &X11Provider{logger: logger, procs: NewProcessManager()}
}

func (p *X11Provider) connect() error {
	if p.conn != nil {
		return nil
	}
	conn, err := xgb.NewConn()
	if err != nil {
		return errors.Wrap(err, "failed to connect to X display")
	}

	atoms := make(map[string]xproto.Atom, len(x11AtomNames))
	for _, name := range x11AtomNames {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			conn.Close()
			return errors.Wrapf(err, "failed to intern atom %s", name)
		}
		atoms[name] = reply.Atom
	}

	p.conn = conn
	p.root = xproto.Setup(conn).DefaultScreen(conn).Root
	p.atoms = atoms
	return nil
}

func (p *X11Provider) reset() {
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
}

// Frontmost implements domain.FrontmostProvider.
func (p *X11Provider) Frontmost(ctx context.Context) (domain.ApplicationID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.connect(); err != nil {
		return "", err
	}

	win, err := p.activeWindow()
	if err != nil {
		p.reset()
		return "", err
	}
	if win == 0 {
		return "", nil
	}

	if pid, err := p.windowPID(win); err == nil && pid > 0 {
		if name, err := p.procs.NameOf(int(pid)); err == nil && name != "" {
			return domain.ApplicationID(name), nil
		}
	}

	class, err := p.windowClass(win)
	if err != nil {
		return "", errors.Wrap(err, "failed to identify active window")
	}
	return domain.ApplicationID(class), nil
}

func (p *X11Provider) property(win xproto.Window, atom, typ xproto.Atom, length uint32) ([]byte, error) {
	reply, err := xproto.GetProperty(p.conn, false, win, atom, typ, 0, length).Reply()
	if err != nil {
		return nil, err
	}
	return reply.Value, nil
}

func (p *X11Provider) activeWindow() (xproto.Window, error) {
	data, err := p.property(p.root, p.atoms["_NET_ACTIVE_WINDOW"], xproto.AtomWindow, 1)
	if err != nil {
		return 0, errors.Wrap(err, "failed to read _NET_ACTIVE_WINDOW")
	}
	if len(data) < 4 {
		return 0, nil
	}
	return xproto.Window(binary.LittleEndian.Uint32(data)), nil
}

func (p *X11Provider) windowPID(win xproto.Window) (uint32, error) {
	data, err := p.property(win, p.atoms["_NET_WM_PID"], xproto.AtomCardinal, 1)
	if err != nil {
		return 0, err
	}
	if len(data) < 4 {
		return 0, errors.New("window has no _NET_WM_PID")
	}
	return binary.LittleEndian.Uint32(data), nil
}

// windowClass returns the class part of WM_CLASS ("instance\0class\0").
func (p *X11Provider) windowClass(win xproto.Window) (string, error) {
	data, err := p.property(win, p.atoms["WM_CLASS"], xproto.AtomString, 128)
	if err != nil {
		return "", err
	}
	return parseWMClass(data), nil
}

func parseWMClass(data []byte) string {
	parts := strings.Split(strings.TrimRight(string(data), "\x00"), "\x00")
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] != "" {
			return parts[i]
		}
	}
	return ""
}

// Close drops the display connection.
func (p *X11Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}

// Ensure X11Provider implements domain.FrontmostProvider.
var _ domain.FrontmostProvider = (*X11Provider)(nil)
