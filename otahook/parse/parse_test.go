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

package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLex(t *testing.T) {
	tokens, err := Lex(`mid == "2PZC30000" || !ro.boot.cid`)
	require.NoError(t, err)

	codes := make([]TokenCode, len(tokens))
	for i, tok := range tokens {
		codes[i] = tok.Code
	}
	assert.Equal(t, []TokenCode{
		TOKEN_IDENT, TOKEN_EQUALS, TOKEN_STRING, TOKEN_OR, TOKEN_NOT,
		TOKEN_IDENT,
	}, codes)
	assert.Equal(t, "2PZC30000", tokens[2].Text)
	assert.Equal(t, "ro.boot.cid", tokens[5].Text)
}

func TestLexEscapedString(t *testing.T) {
	tokens, err := Lex(`cid == "a\"b"`)
	require.NoError(t, err)
	require.Len(t, tokens, 3)
	assert.Equal(t, `a"b`, tokens[2].Text)
}

func TestLexUnterminated(t *testing.T) {
	_, err := Lex(`mid == "2PZC`)
	assert.Error(t, err)
}

func TestParseNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`mid=="A"`, `mid == "A"`},
		{`mid == "A" || mid == "B"`, `mid == "A" || mid == "B"`},
		{`(mid == "A")`, `mid == "A"`},
		{`!(cid == "X")`, `!(cid == "X")`},
		{`(a == "1" || b == "2") && c == "3"`, `(a == "1" || b == "2") && c == "3"`},
		{``, ``},
	}

	for _, tc := range tests {
		got, err := NormalizeExpr(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParsePrecedence(t *testing.T) {
	n, err := LexAndParse(`a == "1" && b == "2" || c == "3"`)
	require.NoError(t, err)

	require.Equal(t, PARSE_OR, n.Code)
	assert.Equal(t, PARSE_AND, n.Left.Code)
	assert.Equal(t, PARSE_EQUALS, n.Right.Code)
}

func TestParseErrors(t *testing.T) {
	for _, expr := range []string{
		`== "A"`,
		`mid ==`,
		`(mid == "A"`,
		`mid == "A")`,
		`(mid) "A"`,
	} {
		_, err := LexAndParse(expr)
		assert.Error(t, err, expr)
	}
}

func TestEval(t *testing.T) {
	props := map[string]string{
		"mid": "2PZC40000",
		"cid": "HTC__001",
	}

	tests := []struct {
		expr string
		want bool
	}{
		{`mid == "2PZC30000" || mid == "2PZC40000"`, true},
		{`mid == "2PZC30000"`, false},
		{`mid != "2PZC30000"`, true},
		{`cid == "SPCS_001"`, false},
		{`mid == "2PZC40000" && cid == "HTC__001"`, true},
		{`!(cid == "HTC__001")`, false},
		{`unset == ""`, true},
		{`mid`, true},
		{`unset`, false},
		{`mid == "2PZC40000" ^^ cid == "HTC__001"`, false},
	}

	for _, tc := range tests {
		got, err := ParseAndEval(tc.expr, props)
		require.NoError(t, err, tc.expr)
		assert.Equal(t, tc.want, got, tc.expr)
	}
}

func TestEvalOrdering(t *testing.T) {
	v, err := ParseAndEval(`rev >= 3`, map[string]string{"rev": "0x4"})
	require.NoError(t, err)
	assert.True(t, v)

	_, err = ParseAndEval(`rev >= 3`, map[string]string{"rev": "dvt"})
	assert.Error(t, err)
}

func TestIdents(t *testing.T) {
	n, err := LexAndParse(`mid == "A" || cid == "B" || mid == "C"`)
	require.NoError(t, err)
	assert.Equal(t, []string{"cid", "mid"}, Idents(n))
}

func TestAnyEquals(t *testing.T) {
	n := AnyEquals("mid", []string{"2PZC30000", "2PZC40000"})
	assert.Equal(t, `mid == "2PZC30000" || mid == "2PZC40000"`, n.String())

	assert.Nil(t, AnyEquals("mid", nil))
}
