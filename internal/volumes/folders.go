package volumes

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/adrg/xdg"
)

// Folders are the well-known directories reported with every disk.
type Folders struct {
	Root      string `json:"root"`
	Home      string `json:"home"`
	Documents string `json:"documents"`
	Downloads string `json:"downloads"`
	Pictures  string `json:"pictures"`
	Videos    string `json:"videos"`
	Audio     string `json:"audio"`
	Desktop   string `json:"desktop"`
}

// FolderResolver resolves the well-known folders.
type FolderResolver interface {
	Resolve() (Folders, error)
}

// ErrFolderUnresolved is returned when a well-known folder has no value.
var ErrFolderUnresolved = errors.New("well-known folder unresolved")

// XDGFolders resolves folders through the XDG user directories.
type XDGFolders struct{}

// Resolve returns the current user's folders. Every folder must resolve.
func (XDGFolders) Resolve() (Folders, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Folders{}, fmt.Errorf("%w: home: %w", ErrFolderUnresolved, err)
	}

	xdg.Reload()
	f := Folders{
		Root:      rootPath(),
		Home:      home,
		Documents: xdg.UserDirs.Documents,
		Downloads: xdg.UserDirs.Download,
		Pictures:  xdg.UserDirs.Pictures,
		Videos:    xdg.UserDirs.Videos,
		Audio:     xdg.UserDirs.Music,
		Desktop:   xdg.UserDirs.Desktop,
	}
	if err := f.Validate(); err != nil {
		return Folders{}, err
	}
	return f, nil
}

// Validate reports the first folder that is empty.
func (f Folders) Validate() error {
	fields := []struct {
		name, value string
	}{
		{"root", f.Root},
		{"home", f.Home},
		{"documents", f.Documents},
		{"downloads", f.Downloads},
		{"pictures", f.Pictures},
		{"videos", f.Videos},
		{"audio", f.Audio},
		{"desktop", f.Desktop},
	}
	for _, field := range fields {
		if field.value == "" {
			return fmt.Errorf("%w: %s", ErrFolderUnresolved, field.name)
		}
	}
	return nil
}

// StaticFolders always resolves to itself.
type StaticFolders Folders

// Resolve returns the folders after validating them.
func (s StaticFolders) Resolve() (Folders, error) {
	f := Folders(s)
	if err := f.Validate(); err != nil {
		return Folders{}, err
	}
	return f, nil
}

func rootPath() string {
	if runtime.GOOS == "windows" {
		if drive := os.Getenv("SystemDrive"); drive != "" {
			return drive + `\`
		}
		return `C:\`
	}
	return string(filepath.Separator)
}
