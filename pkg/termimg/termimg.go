// Package termimg renders PNG screenshots inline in terminal emulators that
// speak the iTerm2 or Kitty graphics protocols.
package termimg

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// Protocol is an inline-image wire protocol.
type Protocol int

const (
	ProtocolNone Protocol = iota
	ProtocolITerm2
	ProtocolKitty
)

func (p Protocol) String() string {
	switch p {
	case ProtocolITerm2:
		return "iTerm2"
	case ProtocolKitty:
		return "Kitty"
	default:
		return "none"
	}
}

// Detect inspects the environment for a supported terminal. Ghostty and
// Kitty both speak the Kitty graphics protocol.
func Detect() Protocol {
	switch os.Getenv("TERM_PROGRAM") {
	case "iTerm.app":
		return ProtocolITerm2
	case "ghostty":
		return ProtocolKitty
	}
	if os.Getenv("KITTY_WINDOW_ID") != "" {
		return ProtocolKitty
	}
	return ProtocolNone
}

// Supported reports whether the current terminal can display inline images.
func Supported() bool {
	return Detect() != ProtocolNone
}

// Render writes the escape sequences that display img (raw PNG or JPEG
// bytes) inline in the current terminal.
func Render(w io.Writer, img []byte) error {
	switch Detect() {
	case ProtocolITerm2:
		return renderITerm2(w, img)
	case ProtocolKitty:
		return renderKitty(w, img)
	default:
		return fmt.Errorf("terminal does not support inline images; save to a file instead")
	}
}

// columns returns the terminal width in cells, defaulting to 80.
func columns() int {
	for _, fd := range []int{int(os.Stdout.Fd()), int(os.Stdin.Fd())} {
		if term.IsTerminal(fd) {
			if w, _, err := term.GetSize(fd); err == nil && w > 0 {
				return w
			}
		}
	}
	return 80
}

// renderITerm2 emits the iTerm2 inline images sequence:
// ESC ] 1337 ; File = [args] : base64 BEL
// https://iterm2.com/documentation-images.html
func renderITerm2(w io.Writer, img []byte) error {
	encoded := base64.StdEncoding.EncodeToString(img)
	_, err := fmt.Fprintf(w, "\033]1337;File=inline=1;width=%d;preserveAspectRatio=1:%s\a\n",
		columns(), encoded)
	return err
}

// kittyChunkSize is the payload limit per escape sequence mandated by the
// Kitty graphics protocol.
const kittyChunkSize = 4096

// renderKitty emits the Kitty graphics protocol with chunked transmission.
// https://sw.kovidgoyal.net/kitty/graphics-protocol/
func renderKitty(w io.Writer, img []byte) error {
	encoded := base64.StdEncoding.EncodeToString(img)
	for first := true; len(encoded) > 0; first = false {
		chunk := encoded
		if len(chunk) > kittyChunkSize {
			chunk = chunk[:kittyChunkSize]
		}
		encoded = encoded[len(chunk):]

		more := 0
		if len(encoded) > 0 {
			more = 1
		}
		var err error
		if first {
			// a=T transmits and displays; f=100 marks PNG data.
			_, err = fmt.Fprintf(w, "\033_Ga=T,f=100,m=%d;%s\033\\", more, chunk)
		} else {
			_, err = fmt.Fprintf(w, "\033_Gm=%d;%s\033\\", more, chunk)
		}
		if err != nil {
			return err
		}
	}
	// Move past the image so later output lands below it.
	_, err := fmt.Fprintln(w)
	return err
}
