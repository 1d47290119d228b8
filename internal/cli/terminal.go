package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/internal/presentation/tui"
	"github.com/aretw0/lattice/pkg/upload"
)

// Terminal draws rendered elements and routes line commands back into
// their controls. It is a thin host: all submission logic stays in the
// client.
type Terminal struct {
	client   *lattice.Client
	out      io.Writer
	style    *tui.Styler
	markdown func(string) (string, error)
	uploader *upload.HTTPUploader // nil when no upload endpoint is configured

	// fields maps a field name to its element from the last draw, so
	// commands address controls by name.
	fields  map[string]*lattice.Element
	buttons []*lattice.Element
}

// TerminalOption configures a Terminal.
type TerminalOption func(*Terminal)

// WithUploader lets the attach command feed local files into file inputs.
func WithUploader(uploader *upload.HTTPUploader) TerminalOption {
	return func(t *Terminal) { t.uploader = uploader }
}

// NewTerminal creates a driver writing to out.
func NewTerminal(client *lattice.Client, out io.Writer, opts ...TerminalOption) *Terminal {
	t := &Terminal{
		client:   client,
		out:      out,
		style:    tui.NewStyler(),
		markdown: tui.NewRenderer(tui.Width(100)),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Draw renders the client's current tree to the terminal and rebuilds the
// command index.
func (t *Terminal) Draw() {
	t.fields = make(map[string]*lattice.Element)
	t.buttons = nil

	fmt.Fprintln(t.out, t.style.Dim(strings.Repeat("─", 40)))
	for _, el := range t.client.Render() {
		t.drawElement(el, 0)
	}
}

func (t *Terminal) drawElement(el *lattice.Element, depth int) {
	indent := strings.Repeat("  ", depth)
	switch el.Kind {
	case "markdown":
		rendered, err := t.markdown(el.Text)
		if err != nil {
			rendered = el.Text
		}
		fmt.Fprint(t.out, rendered)
	case "pre", "json":
		for _, line := range strings.Split(strings.TrimRight(el.Text, "\n"), "\n") {
			fmt.Fprintf(t.out, "%s  %s\n", indent, line)
		}
	case "link":
		fmt.Fprintf(t.out, "%s%s\n", indent, t.style.Dim(el.Text))
	case "button":
		t.buttons = append(t.buttons, el)
		fmt.Fprintf(t.out, "%s%s\n", indent,
			t.style.Button(fmt.Sprintf("(%d) %s", len(t.buttons), el.Text)))
	case "unknown":
		fmt.Fprintf(t.out, "%s%s\n", indent, t.style.Dim(el.Text))
	case "input", "textarea", "select", "expander", "switch":
		t.drawControl(el, indent)
	default:
		if el.Text != "" {
			fmt.Fprintf(t.out, "%s%s\n", indent, el.Text)
		}
	}
	for _, child := range el.Children {
		t.drawElement(child, depth+1)
	}
}

func (t *Terminal) drawControl(el *lattice.Element, indent string) {
	if el.Control == nil {
		return
	}
	field := el.Control.Field()
	if field == "" {
		return
	}
	t.fields[field] = el

	label, _ := el.Props["label"].(string)
	if label == "" {
		label = field
	}
	value := el.Control.Value()
	display := ""
	switch v := value.(type) {
	case nil:
	case bool:
		display = "[ ]"
		if v {
			display = "[x]"
		}
	case string:
		if inputType, _ := el.Props["type"].(string); inputType == "password" {
			display = strings.Repeat("*", len(v))
		} else {
			display = v
		}
	default:
		display = fmt.Sprint(v)
	}
	fmt.Fprintf(t.out, "%s%s %s  %s\n", indent,
		t.style.Label(label+":"), t.style.Value(display), t.style.Dim("("+field+")"))
}

// Handle executes one command line. It reports whether the command changed
// anything (so the caller knows to wait for the cycle to settle).
func (t *Terminal) Handle(line string) (bool, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false, nil
	}
	cmd, rest := parts[0], parts[1:]

	switch cmd {
	case "set":
		if len(rest) < 1 {
			return false, fmt.Errorf("usage: set <field> <value>")
		}
		return t.setField(rest[0], strings.Join(rest[1:], " "))
	case "toggle":
		if len(rest) != 1 {
			return false, fmt.Errorf("usage: toggle <field>")
		}
		return t.toggleField(rest[0])
	case "press":
		if len(rest) != 1 {
			return false, fmt.Errorf("usage: press <number>")
		}
		return t.pressButton(rest[0])
	case "attach":
		if len(rest) < 2 {
			return false, fmt.Errorf("usage: attach <field> <path>...")
		}
		return t.attachFiles(rest[0], rest[1:])
	case "rerun":
		return true, t.client.Rerun()
	case "state":
		data, err := json.MarshalIndent(t.client.SessionState(), "", "  ")
		if err != nil {
			return false, err
		}
		fmt.Fprintln(t.out, string(data))
		return false, nil
	case "help":
		t.printHelp()
		return false, nil
	default:
		return false, fmt.Errorf("unknown command %q (try: help)", cmd)
	}
}

func (t *Terminal) setField(field, value string) (bool, error) {
	el, ok := t.fields[field]
	if !ok {
		return false, fmt.Errorf("no field %q on this page", field)
	}
	switch control := el.Control.(type) {
	case interface{ Input(string) }:
		control.Input(value)
		// steppers only submit once focus leaves the control
		if blurrer, ok := el.Control.(interface{ Blur() }); ok {
			blurrer.Blur()
		}
		return true, nil
	case interface{ Slide(string) }:
		control.Slide(value)
		return true, nil
	case interface{ Choose(any) }:
		control.Choose(value)
		return true, nil
	case interface{ SetChecked(bool) }:
		on, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("field %q takes true/false", field)
		}
		control.SetChecked(on)
		return true, nil
	default:
		return false, fmt.Errorf("field %q is not settable", field)
	}
}

func (t *Terminal) toggleField(field string) (bool, error) {
	el, ok := t.fields[field]
	if !ok {
		return false, fmt.Errorf("no field %q on this page", field)
	}
	toggler, ok := el.Control.(interface{ Toggle() })
	if !ok {
		return false, fmt.Errorf("field %q does not toggle", field)
	}
	toggler.Toggle()
	return true, nil
}

func (t *Terminal) attachFiles(field string, paths []string) (bool, error) {
	if t.uploader == nil {
		return false, fmt.Errorf("no upload endpoint configured (set upload_endpoint)")
	}
	if _, ok := t.fields[field]; !ok {
		return false, fmt.Errorf("no field %q on this page", field)
	}
	if err := t.uploader.Add(context.Background(), field, paths...); err != nil {
		return false, err
	}
	return true, nil
}

func (t *Terminal) pressButton(arg string) (bool, error) {
	idx, err := strconv.Atoi(arg)
	if err != nil || idx < 1 || idx > len(t.buttons) {
		return false, fmt.Errorf("no button %q (1-%d)", arg, len(t.buttons))
	}
	clicker, ok := t.buttons[idx-1].Control.(interface{ Click() })
	if !ok {
		return false, fmt.Errorf("button %d is not pressable", idx)
	}
	clicker.Click()
	return true, nil
}

func (t *Terminal) printHelp() {
	fmt.Fprintln(t.out, t.style.Dim(`commands:
  set <field> <value>   edit a text, number, range or select field
  toggle <field>        flip a checkbox, switch or expander
  press <n>             press button n
  attach <field> <path> upload local files into a file input
  rerun                 resubmit the page unchanged
  state                 dump the session state
  q                     quit`))
}
