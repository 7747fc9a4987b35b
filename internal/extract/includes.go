package extract

import (
	"os"
	"path/filepath"
	"strings"
)

// SearchPath holds the include directories a unit was compiled with, in
// compiler search order.
type SearchPath struct {
	Quote    []string
	Angled   []string
	System   []string
	DirAfter []string
}

// includeFlags are the recognized include directory options.
var includeFlags = []string{"-iquote", "-isystem", "-idirafter", "-I"}

// ParseSearchPath reads -I, -iquote, -isystem and -idirafter from flags, in both
// joined and separate forms. Relative directories resolve against workDir.
func ParseSearchPath(flags []string, workDir string) SearchPath {
	var sp SearchPath
	for i := 0; i < len(flags); i++ {
		flag := flags[i]
		for _, opt := range includeFlags {
			if !strings.HasPrefix(flag, opt) {
				continue
			}
			dir := strings.TrimPrefix(flag, opt)
			if dir == "" {
				if i+1 >= len(flags) {
					break
				}
				i++
				dir = flags[i]
			}
			if !filepath.IsAbs(dir) {
				dir = filepath.Join(workDir, dir)
			}
			dir = filepath.Clean(dir)
			switch opt {
			case "-I":
				sp.Angled = append(sp.Angled, dir)
			case "-iquote":
				sp.Quote = append(sp.Quote, dir)
			case "-isystem":
				sp.System = append(sp.System, dir)
			case "-idirafter":
				sp.DirAfter = append(sp.DirAfter, dir)
			}
			break
		}
	}
	return sp
}

// Resolve finds the file named by an include directive. Quoted includes search the
// including file's directory and the -iquote directories first; both forms then
// search -I, -isystem and -idirafter.
func (sp SearchPath) Resolve(name string, angled bool, includerDir string) (string, bool) {
	if filepath.IsAbs(name) {
		return name, isFile(name)
	}

	var dirs []string
	if !angled {
		dirs = append(dirs, includerDir)
		dirs = append(dirs, sp.Quote...)
	}
	dirs = append(dirs, sp.Angled...)
	dirs = append(dirs, sp.System...)
	dirs = append(dirs, sp.DirAfter...)

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name)
		if isFile(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
