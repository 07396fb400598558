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

package edify

import (
	log "github.com/sirupsen/logrus"

	"github.com/htc-ocn/otahook/util"
)

// A mount argument list is: fs-type, partition-type, device, mount-point
// and an optional options string.
const mountPointArg = 3

// An open `if` block.  Mounts opened inside the block must be closed before
// the block's `else` or `endif`.
type checkFrame struct {
	line    int
	mounts  []string
	hasElse bool
}

type checker struct {
	frames []*checkFrame
	open   map[string]int

	// Mounts whose mount point is not a literal.
	dynamic int
}

func (c *checker) top() *checkFrame {
	return c.frames[len(c.frames)-1]
}

func (c *checker) openMounts(f *checkFrame, lineNum int, what string) error {
	if len(f.mounts) > 0 {
		mp := f.mounts[0]
		return util.FmtOtaError(
			"line %d: %s while %s (mounted at line %d) is still mounted",
			lineNum, what, mp, c.open[mp])
	}
	return nil
}

// A call argument.  Only an argument that is a single string literal has a
// value the checker can pair on.
type callArg struct {
	literal bool
	value   string
}

// Splits the arguments of the call whose opening parenthesis is at
// tokens[start] on top-level commas.  The index of the closing parenthesis
// is also returned.
func callArgs(tokens []Token, start int, lineNum int) ([]callArg, int, error) {
	if start >= len(tokens) || tokens[start].Code != TOKEN_LPAREN {
		return nil, 0, util.FmtOtaError(
			"line %d: expected `(` after %s", lineNum, tokens[start-1].Text)
	}

	args := []callArg{}
	var cur []Token
	closeArg := func() {
		arg := callArg{}
		if len(cur) == 1 && cur[0].Code == TOKEN_STRING {
			arg = callArg{literal: true, value: cur[0].Text}
		}
		args = append(args, arg)
		cur = nil
	}

	depth := 0
	for i := start; i < len(tokens); i++ {
		tok := tokens[i]
		switch {
		case tok.Code == TOKEN_LPAREN:
			depth++
			if depth == 1 {
				continue
			}

		case tok.Code == TOKEN_RPAREN:
			depth--
			if depth == 0 {
				if len(cur) > 0 || len(args) > 0 {
					closeArg()
				}
				return args, i, nil
			}

		case tok.Code == TOKEN_COMMA && depth == 1:
			closeArg()
			continue
		}

		cur = append(cur, tok)
	}

	return nil, 0, util.FmtOtaError("line %d: unterminated call to %s",
		lineNum, tokens[start-1].Text)
}

func (c *checker) word(tokens []Token, i int, lineNum int) (int, error) {
	tok := tokens[i]

	switch tok.Text {
	case "if":
		c.frames = append(c.frames, &checkFrame{line: lineNum})

	case "else":
		if len(c.frames) == 0 {
			return 0, util.FmtOtaError("line %d: else without if", lineNum)
		}
		f := c.top()
		if f.hasElse {
			return 0, util.FmtOtaError("line %d: second else for if at "+
				"line %d", lineNum, f.line)
		}
		if err := c.openMounts(f, lineNum, "else"); err != nil {
			return 0, err
		}
		f.hasElse = true

	case "endif":
		if len(c.frames) == 0 {
			return 0, util.FmtOtaError("line %d: endif without if", lineNum)
		}
		if err := c.openMounts(c.top(), lineNum, "endif"); err != nil {
			return 0, err
		}
		c.frames = c.frames[:len(c.frames)-1]

	case "mount":
		args, end, err := callArgs(tokens, i+1, lineNum)
		if err != nil {
			return 0, err
		}
		if len(args) <= mountPointArg {
			return 0, util.FmtOtaError("line %d: mount lacks a mount point",
				lineNum)
		}
		if !args[mountPointArg].literal {
			log.Warnf("line %d: mount point is not a literal; "+
				"not paired", lineNum)
			c.dynamic++
			return end, nil
		}
		mp := args[mountPointArg].value
		if prev, ok := c.open[mp]; ok {
			return 0, util.FmtOtaError("line %d: %s already mounted at "+
				"line %d", lineNum, mp, prev)
		}
		c.open[mp] = lineNum
		if len(c.frames) > 0 {
			f := c.top()
			f.mounts = append(f.mounts, mp)
		}
		return end, nil

	case "unmount":
		args, end, err := callArgs(tokens, i+1, lineNum)
		if err != nil {
			return 0, err
		}
		if len(args) != 1 {
			return 0, util.FmtOtaError("line %d: unmount takes one mount "+
				"point", lineNum)
		}
		if !args[0].literal {
			log.Warnf("line %d: unmount point is not a literal; "+
				"not paired", lineNum)
			return end, nil
		}
		mp := args[0].value
		if _, ok := c.open[mp]; !ok {
			// May close a mount whose point was computed at run time.
			if c.dynamic > 0 {
				c.dynamic--
				return end, nil
			}
			return 0, util.FmtOtaError("line %d: unmount of %s without a "+
				"preceding mount", lineNum, mp)
		}
		if len(c.frames) > 0 {
			f := c.top()
			idx := -1
			for j, m := range f.mounts {
				if m == mp {
					idx = j
				}
			}
			if idx == -1 {
				return 0, util.FmtOtaError("line %d: unmount of %s, "+
					"which was mounted outside the enclosing if block",
					lineNum, mp)
			}
			f.mounts = append(f.mounts[:idx], f.mounts[idx+1:]...)
		}
		delete(c.open, mp)
		return end, nil
	}

	return i, nil
}

// Check verifies the structure of an emitted directive sequence.  Every
// mount must be followed by exactly one unmount of the same mount point
// within the same block, and if/else/endif must nest.  Line numbers in
// errors are 1-based.
func Check(lines []string) error {
	c := &checker{
		open: map[string]int{},
	}

	for idx, line := range lines {
		lineNum := idx + 1

		tokens, err := Lex(line)
		if err != nil {
			return util.FmtOtaError("line %d: %s", lineNum, err.Error())
		}

		for i := 0; i < len(tokens); i++ {
			if tokens[i].Code != TOKEN_WORD {
				continue
			}

			i, err = c.word(tokens, i, lineNum)
			if err != nil {
				return err
			}
		}
	}

	if len(c.frames) > 0 {
		return util.FmtOtaError("if at line %d lacks endif",
			c.frames[len(c.frames)-1].line)
	}
	if len(c.open) > 0 {
		first := ""
		for mp, lineNum := range c.open {
			if first == "" || lineNum < c.open[first] {
				first = mp
			}
		}
		return util.FmtOtaError("%s mounted at line %d is never unmounted",
			first, c.open[first])
	}

	log.Debugf("checked %d script lines", len(lines))
	return nil
}
