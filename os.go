package osarun

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DirFile contains details for a file.
type DirFile struct {
	Name     string
	FullPath string
	IsDir    bool
}

// GetDirFiles retrives all the files within the given directory and returns file mapping
// indicating whether the file is a Directory.
func GetDirFiles(dir string) ([]DirFile, error) {
	files, err := ioutil.ReadDir(dir)
	if err != nil {
		return []DirFile{}, err
	}
	filenames := make([]DirFile, 0, len(files))
	for _, f := range files {
		filenames = append(filenames, DirFile{
			Name:     f.Name(),
			FullPath: filepath.Join(dir, f.Name()),
			IsDir:    f.IsDir(),
		})
	}
	sort.SliceStable(filenames, func(i, j int) bool {
		return filenames[i].Name < filenames[j].Name
	})
	return filenames, nil
}

// GetScriptFiles retrives the automation script files within the given directory,
// skipping subdirectories and anything without a recognized script extension.
func GetScriptFiles(dir string) ([]DirFile, error) {
	files, err := GetDirFiles(dir)
	if err != nil {
		return files, err
	}
	scripts := make([]DirFile, 0, len(files))
	for _, f := range files {
		if !f.IsDir && IsScript(f.Name) {
			scripts = append(scripts, f)
		}
	}
	return scripts, nil
}

// IsScript returns true if the filename carries an automation script extension.
func IsScript(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case `.applescript`, `.scpt`, `.js`, `.osa`:
		return true
	}
	return false
}

// GetCWD returns the directory containing the running executable.
func GetCWD() (string, error) {
	ex, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(ex), nil
}

// FileExists checks for the existence of the file indicated by filename and returns true if it exists.
func FileExists(filename string) bool {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return false
	}
	return true
}

// CreateDir creates the given directory path if it does not exist.
func CreateDir(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		err = os.MkdirAll(path, 0754)
		if err != nil {
			return err
		}
		err = os.Chmod(path, 0754)
		if err != nil {
			return err
		}
	}
	return nil
}
