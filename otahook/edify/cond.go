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
	"strings"

	"github.com/htc-ocn/otahook/otahook/parse"
	"github.com/htc-ocn/otahook/util"
)

// PropAliases maps the short names accepted in variant conditions to the
// device properties they read.
var PropAliases = map[string]string{
	"mid": "ro.boot.mid",
	"cid": "ro.boot.cid",
}

// PropName resolves a condition identifier to a property name.  Dotted
// identifiers are taken to be property names already.
func PropName(ident string, aliases map[string]string) (string, error) {
	if prop, ok := aliases[ident]; ok {
		return prop, nil
	}
	if strings.Contains(ident, ".") {
		return ident, nil
	}

	return "", util.FmtOtaError("unknown property \"%s\"", ident)
}

func condLeaf(n *parse.Node, aliases map[string]string) (string, error) {
	switch n.Code {
	case parse.PARSE_IDENT:
		prop, err := PropName(n.Data, aliases)
		if err != nil {
			return "", err
		}
		return Getprop(prop), nil

	case parse.PARSE_STRING, parse.PARSE_NUMBER:
		return Quote(n.Data), nil

	default:
		return "", util.FmtOtaError(
			"operand of comparison must be a property or literal: `%s`",
			n.String())
	}
}

func condPrecedence(n *parse.Node) int {
	switch n.Code {
	case parse.PARSE_OR:
		return 1
	case parse.PARSE_AND:
		return 2
	case parse.PARSE_EQUALS, parse.PARSE_NOT_EQUALS:
		return 3
	default:
		return 4
	}
}

func condChild(parent *parse.Node, child *parse.Node,
	aliases map[string]string) (string, error) {

	s, err := cond(child, aliases)
	if err != nil {
		return "", err
	}
	if child.IsBinary() && condPrecedence(child) < condPrecedence(parent) {
		s = "(" + s + ")"
	}
	return s, nil
}

func cond(n *parse.Node, aliases map[string]string) (string, error) {
	switch n.Code {
	case parse.PARSE_EQUALS, parse.PARSE_NOT_EQUALS:
		l, err := condLeaf(n.Left, aliases)
		if err != nil {
			return "", err
		}
		r, err := condLeaf(n.Right, aliases)
		if err != nil {
			return "", err
		}
		return l + " " + n.Data + " " + r, nil

	case parse.PARSE_AND, parse.PARSE_OR:
		l, err := condChild(n, n.Left, aliases)
		if err != nil {
			return "", err
		}
		r, err := condChild(n, n.Right, aliases)
		if err != nil {
			return "", err
		}
		return l + " " + n.Data + " " + r, nil

	case parse.PARSE_NOT:
		r, err := cond(n.Right, aliases)
		if err != nil {
			return "", err
		}
		if n.Right.IsBinary() {
			r = "(" + r + ")"
		}
		return "!" + r, nil

	case parse.PARSE_IDENT, parse.PARSE_STRING, parse.PARSE_NUMBER:
		return condLeaf(n, aliases)

	default:
		return "", util.FmtOtaError(
			"operator %s has no script equivalent", n.Data)
	}
}

// Cond renders a parsed condition as a script expression.  Identifiers are
// resolved through aliases and read with getprop.
func Cond(n *parse.Node, aliases map[string]string) (string, error) {
	if n == nil {
		return "", util.NewOtaError("empty condition")
	}

	s, err := cond(n, aliases)
	if err != nil {
		return "", util.PreOtaError(err, "condition `%s`", n.String())
	}

	return s, nil
}
