/**
 * Licensed to the Apache Software Foundation (ASF) under one
 * or more contributor license agreements.  See the NOTICE file
 * distributed with this work for additional information
 * regarding copyright ownership.  The ASF licenses this file
 * to you under the Apache License, Version 2.0 (the
 * "License"); you may not use this file except in compliance
 * with the License.  You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package util

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/otiai10/copy"
)

var Verbosity int
var PrintShellCmds bool
var logFile *os.File

type OtaError struct {
	Parent     error
	Text       string
	StackTrace []byte
}

const (
	VERBOSITY_SILENT  = 0
	VERBOSITY_QUIET   = 1
	VERBOSITY_DEFAULT = 2
	VERBOSITY_VERBOSE = 3
)

func (se *OtaError) Error() string {
	return se.Text
}

func NewOtaError(msg string) *OtaError {
	err := &OtaError{
		Text:       msg,
		StackTrace: make([]byte, 65536),
	}

	stackLen := runtime.Stack(err.StackTrace, true)
	err.StackTrace = err.StackTrace[:stackLen]

	return err
}

func FmtOtaError(format string, args ...interface{}) *OtaError {
	return NewOtaError(fmt.Sprintf(format, args...))
}

// PreOtaError prefixes the text of an existing error.  Errors that did not
// originate in this module are wrapped first.
func PreOtaError(err error, format string, args ...interface{}) *OtaError {
	baseErr, ok := err.(*OtaError)
	if !ok {
		baseErr = ChildOtaError(err)
	}
	baseErr.Text = fmt.Sprintf(format, args...) + "; " + baseErr.Text

	return baseErr
}

func ChildOtaError(parent error) *OtaError {
	for {
		otaErr, ok := parent.(*OtaError)
		if !ok || otaErr == nil || otaErr.Parent == nil {
			break
		}
		parent = otaErr.Parent
	}

	otaErr := NewOtaError(parent.Error())
	otaErr.Parent = parent
	return otaErr
}

func FmtChildOtaError(parent error, format string,
	args ...interface{}) *OtaError {

	oe := ChildOtaError(parent)
	oe.Text = fmt.Sprintf(format, args...)
	return oe
}

// Print Silent, Quiet and Verbose aware status messages to the given file.
func WriteMessage(f *os.File, level int, message string,
	args ...interface{}) {

	if Verbosity >= level {
		str := fmt.Sprintf(message, args...)
		f.WriteString(str)
		f.Sync()

		if logFile != nil {
			logFile.WriteString(str)
		}
	}
}

// Print Silent, Quiet and Verbose aware status messages to stdout.
func StatusMessage(level int, message string, args ...interface{}) {
	WriteMessage(os.Stdout, level, message, args...)
}

// Print Silent, Quiet and Verbose aware status messages to stderr.
func ErrorMessage(level int, message string, args ...interface{}) {
	WriteMessage(os.Stderr, level, message, args...)
}

func NodeExist(path string) bool {
	if _, err := os.Stat(path); err == nil {
		return true
	} else {
		return false
	}
}

type logFormatter struct{}

func (f *logFormatter) Format(entry *log.Entry) ([]byte, error) {
	// 2016/03/16 12:50:47 [DEBUG]

	b := &bytes.Buffer{}

	b.WriteString(entry.Time.Format("2006/01/02 15:04:05.000 "))
	b.WriteString("[" + strings.ToUpper(entry.Level.String()) + "] ")
	b.WriteString(entry.Message)
	b.WriteByte('\n')

	return b.Bytes(), nil
}

func initLog(level log.Level, logFilename string) error {
	log.SetLevel(level)

	var writer io.Writer
	if logFilename == "" {
		writer = os.Stderr
	} else {
		var err error
		logFile, err = os.Create(logFilename)
		if err != nil {
			return NewOtaError(err.Error())
		}

		writer = io.MultiWriter(os.Stderr, logFile)
	}

	log.SetOutput(writer)
	log.SetFormatter(&logFormatter{})

	return nil
}

// Initialize the util module
func Init(logLevel log.Level, logFile string, verbosity int) error {
	// The stderr filter is configured before the log file is opened so that
	// failures to open the file are reported at the requested level.
	if err := initLog(logLevel, ""); err != nil {
		return err
	}
	if logFile != "" {
		if err := initLog(logLevel, logFile); err != nil {
			return err
		}
	}

	Verbosity = verbosity
	PrintShellCmds = false

	return nil
}

func LogShellCmd(cmdStrs []string, env map[string]string) {
	envLogStr := ""
	if len(env) > 0 {
		s := EnvVarsToSlice(env)
		envLogStr = strings.Join(s, " ") + " "
	}
	log.Debugf("%s%s", envLogStr, strings.Join(cmdStrs, " "))

	if PrintShellCmds {
		StatusMessage(VERBOSITY_DEFAULT, "%s\n", strings.Join(cmdStrs, " "))
	}
}

// EnvVarsToSlice converts an environment variable map into a slice of `k=v`
// strings.
func EnvVarsToSlice(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k, _ := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	slice := make([]string, 0, len(env))
	for _, key := range keys {
		slice = append(slice, fmt.Sprintf("%s=%s", key, env[key]))
	}

	return slice
}

// SliceToEnvVars converts a slice of `k=v` strings into an environment
// variable map.
func SliceToEnvVars(slc []string) (map[string]string, error) {
	m := make(map[string]string, len(slc))
	for _, s := range slc {
		parts := strings.SplitN(s, "=", 2)
		if len(parts) != 2 {
			return nil, FmtOtaError("invalid env var string: \"%s\"", s)
		}

		m[parts[0]] = parts[1]
	}

	return m, nil
}

// EnvironAsMap gathers the current process's set of environment variables and
// returns them as a map.
func EnvironAsMap() (map[string]string, error) {
	return SliceToEnvVars(os.Environ())
}

// Execute the specified process and block until it completes.
//
// @param cmdStrs               The "argv" strings of the command to execute.
// @param env                   Additional key,value pairs to inject into the
//                                  child process's environment.  Specify nil
//                                  to just inherit the parent environment.
//
// @return []byte               Combined stdout and stderr output of process.
// @return error                OtaError on failure.  Use IsExit() to
//                                  determine if the command failed to execute
//                                  or if it just returned a non-zero exit
//                                  status.
func ShellCommand(cmdStrs []string, env map[string]string) ([]byte, error) {
	if len(cmdStrs) == 0 {
		return nil, NewOtaError("empty command")
	}

	LogShellCmd(cmdStrs, env)

	cmd := exec.Command(cmdStrs[0], cmdStrs[1:]...)
	if env != nil {
		m, err := EnvironAsMap()
		if err != nil {
			return nil, err
		}

		for k, v := range env {
			m[k] = v
		}
		cmd.Env = EnvVarsToSlice(m)
	}

	o, err := cmd.CombinedOutput()
	log.Debugf("o=%s", string(o))

	if err != nil {
		oe := ChildOtaError(err)
		log.Debugf("err=%s", oe.Error())
		if len(o) > 0 {
			oe.Text = string(o)
		}
		return o, oe
	}

	return o, nil
}

// CopyDir recursively copies a directory tree.  Symlinks are recreated rather
// than followed.
func CopyDir(srcDirStr, dstDirStr string) error {
	opt := copy.Options{
		OnSymlink: func(src string) copy.SymlinkAction {
			return copy.Shallow
		},
	}

	err := copy.Copy(srcDirStr, dstDirStr, opt)

	if err != nil {
		return ChildOtaError(err)
	}

	return nil
}

// WriteFile writes the given contents to path, creating parent directories
// as needed.  The file is left untouched if it already holds the contents.
// The return value indicates whether a write occurred.
func WriteFile(path string, contents []byte) (bool, error) {
	changed, err := FileContentsChanged(path, contents)
	if err != nil {
		return false, err
	}
	if !changed {
		log.Debugf("%s unchanged", path)
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return false, ChildOtaError(err)
	}
	if err := os.WriteFile(path, contents, 0644); err != nil {
		return false, ChildOtaError(err)
	}

	return true, nil
}

func FileContentsChanged(path string, newContents []byte) (bool, error) {
	oldContents, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist; write required.
			return true, nil
		}

		return true, NewOtaError(err.Error())
	}

	rc := bytes.Compare(oldContents, newContents)
	return rc != 0, nil
}

// Converts the specified string to an integer.  The string can be in base-10
// or base-16.  This is equivalent to the "0" base used in the standard
// conversion functions, except octal is not supported (a leading zero implies
// decimal).
//
// The second return value is true on success.
func AtoiNoOctTry(s string) (int, bool) {
	var runLen int
	for runLen = 0; runLen < len(s)-1; runLen++ {
		if s[runLen] != '0' || s[runLen+1] == 'x' {
			break
		}
	}

	if runLen > 0 {
		s = s[runLen:]
	}

	i, err := strconv.ParseInt(s, 0, 0)
	if err != nil {
		return 0, false
	}

	return int(i), true
}

func IsNotExist(err error) bool {
	otaErr, ok := err.(*OtaError)
	if ok {
		err = otaErr.Parent
	}

	return os.IsNotExist(err)
}

// Indicates whether the provided error is of type *exec.ExitError (raised when
// a child process exits with a non-zero status code).
func IsExit(err error) bool {
	otaErr, ok := err.(*OtaError)
	if ok {
		err = otaErr.Parent
	}

	_, ok = err.(*exec.ExitError)
	return ok
}

// Attempts to convert the specified absolute path into a relative path
// (relative to the current working directory).  If the path cannot be
// converted, it is returned unchanged.
func TryRelPath(full string) string {
	pwd, err := os.Getwd()
	if err != nil {
		return full
	}

	rel, err := filepath.Rel(pwd, full)
	if err != nil {
		return full
	}

	return rel
}

// Keeps track of warnings that have already been reported.
// [warning-text] => struct{}
var warnings = map[string]struct{}{}

// Displays the specified warning if it has not been displayed yet.
func OneTimeWarning(text string, args ...interface{}) {
	body := fmt.Sprintf(text, args...)
	if _, ok := warnings[body]; !ok {
		warnings[body] = struct{}{}
		ErrorMessage(VERBOSITY_QUIET, "WARNING: %s\n", body)
	}
}
