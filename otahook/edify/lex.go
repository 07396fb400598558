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
	"fmt"
	"strings"
)

type TokenCode int

const (
	TOKEN_EQUALS TokenCode = iota
	TOKEN_NOT_EQUALS
	TOKEN_AND
	TOKEN_OR
	TOKEN_NOT
	TOKEN_PLUS
	TOKEN_LPAREN
	TOKEN_RPAREN
	TOKEN_COMMA
	TOKEN_SEMI
	TOKEN_STRING
	TOKEN_WORD
)

type Token struct {
	Code   TokenCode
	Text   string
	Offset int
}

type lexFn func(s string) (string, int, error)

const delimChars = "!=&|+(),;\" \t\n"

func lexStringFn(sought string) lexFn {
	return func(s string) (string, int, error) {
		if strings.HasPrefix(s, sought) {
			return sought, len(sought), nil
		}
		return "", 0, nil
	}
}

// Lexes a quoted literal, resolving the escapes Quote produces.
func lexLitString(s string) (string, int, error) {
	if s[0] != '"' {
		return "", 0, nil
	}

	var b strings.Builder
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if i+1 >= len(s) {
				return "", 0, fmt.Errorf("unterminated string: %s", s)
			}
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(s[i])
			}

		case '"':
			return b.String(), i + 1, nil

		default:
			b.WriteByte(s[i])
		}
	}

	return "", 0, fmt.Errorf("unterminated string: %s", s)
}

func lexWord(s string) (string, int, error) {
	idx := strings.IndexAny(s, delimChars)
	if idx == -1 {
		return s, len(s), nil
	}
	return s[:idx], idx, nil
}

type lexEntry struct {
	code TokenCode
	fn   lexFn
}

var lexEntries = []lexEntry{
	{TOKEN_EQUALS, lexStringFn("==")},
	{TOKEN_NOT_EQUALS, lexStringFn("!=")},
	{TOKEN_AND, lexStringFn("&&")},
	{TOKEN_OR, lexStringFn("||")},
	{TOKEN_NOT, lexStringFn("!")},
	{TOKEN_PLUS, lexStringFn("+")},
	{TOKEN_LPAREN, lexStringFn("(")},
	{TOKEN_RPAREN, lexStringFn(")")},
	{TOKEN_COMMA, lexStringFn(",")},
	{TOKEN_SEMI, lexStringFn(";")},
	{TOKEN_STRING, lexLitString},
	{TOKEN_WORD, lexWord},
}

// Lex tokenizes one line of script text.  Comments (`#` to end of line) are
// dropped.
func Lex(line string) ([]Token, error) {
	tokens := []Token{}

	off := 0
	for off < len(line) {
		sub := line[off:]
		trimmed := strings.TrimLeft(sub, " \t\n")
		off += len(sub) - len(trimmed)
		if trimmed == "" || trimmed[0] == '#' {
			break
		}

		matched := false
		for _, e := range lexEntries {
			text, sz, err := e.fn(trimmed)
			if err != nil {
				return nil, err
			}
			if sz != 0 {
				tokens = append(tokens, Token{
					Code:   e.code,
					Text:   text,
					Offset: off,
				})
				off += sz
				matched = true
				break
			}
		}

		if !matched {
			return nil, fmt.Errorf("invalid token starting with: %s",
				trimmed)
		}
	}

	return tokens, nil
}
