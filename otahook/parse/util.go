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

type Operator struct {
	Code ParseCode
	Text string
}

// Combine applies a binary operator across a list of expressions,
// right-associatively and in the given order.
func Combine(nodes []*Node, op Operator) *Node {
	if len(nodes) == 0 {
		return nil
	}

	var iter func(nodes []*Node) *Node
	iter = func(nodes []*Node) *Node {
		if len(nodes) == 1 {
			return nodes[0]
		}

		return &Node{
			Code:  op.Code,
			Data:  op.Text,
			Left:  nodes[0],
			Right: iter(nodes[1:]),
		}
	}

	return iter(nodes)
}

func Disjunction(nodes []*Node) *Node {
	for _, n := range nodes {
		if n == nil {
			return nil
		}
	}

	return Combine(nodes, Operator{PARSE_OR, "||"})
}

func Conjunction(nodes []*Node) *Node {
	for _, n := range nodes {
		if n == nil {
			return nil
		}
	}
	return Combine(nodes, Operator{PARSE_AND, "&&"})
}

// Equals builds `<ident> == "<value>"`.
func Equals(ident string, value string) *Node {
	return &Node{
		Code:  PARSE_EQUALS,
		Data:  "==",
		Left:  &Node{Code: PARSE_IDENT, Data: ident},
		Right: &Node{Code: PARSE_STRING, Data: value},
	}
}

// AnyEquals builds `<ident> == "<v1>" || <ident> == "<v2>" ...`.
func AnyEquals(ident string, values []string) *Node {
	nodes := make([]*Node, len(values))
	for i, v := range values {
		nodes[i] = Equals(ident, v)
	}

	return Disjunction(nodes)
}
