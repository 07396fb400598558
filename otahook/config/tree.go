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

package config

import (
	"sort"
	"strings"

	"github.com/htc-ocn/otahook/util"
)

// Node is one file in an import tree.
type Node struct {
	Entry    *FileEntry
	Children []*Node
}

func SortTree(root *Node) {
	sort.Slice(root.Children, func(i, j int) bool {
		return root.Children[i].Entry.FileInfo.Path <
			root.Children[j].Entry.FileInfo.Path
	})
	for _, n := range root.Children {
		SortTree(n)
	}
}

func BuildTree(entries []FileEntry) (*Node, error) {
	// Create a node for each entry.
	m := make(map[*util.FileInfo]*Node, len(entries))
	for i, _ := range entries {
		e := &entries[i]
		m[e.FileInfo] = &Node{
			Entry: e,
		}
	}

	// Attach each node to its importer.  Entries are visited in read order
	// so that children keep a stable order before sorting.
	var root *Node
	for i, _ := range entries {
		n := m[entries[i].FileInfo]
		if n.Entry.FileInfo.Parent == nil {
			if root != nil {
				return nil, util.FmtOtaError(
					"config tree contains two roots: %s, %s",
					root.Entry.FileInfo.Path, n.Entry.FileInfo.Path)
			}
			root = n
		} else {
			parentNode := m[n.Entry.FileInfo.Parent]
			if parentNode == nil {
				return nil, util.FmtOtaError(
					"config file %s has unknown importer %s",
					n.Entry.FileInfo.Path, n.Entry.FileInfo.Parent.Path)
			}
			parentNode.Children = append(parentNode.Children, n)
		}
	}

	if root == nil {
		return nil, util.NewOtaError("config tree has no root")
	}

	SortTree(root)
	return root, nil
}

func TreeString(tree *Node) string {
	var lines []string

	var appendLines func(n *Node, nestLevel int)
	appendLines = func(n *Node, nestLevel int) {
		indent := strings.Repeat(" ", nestLevel*4)
		lines = append(lines, indent+util.TryRelPath(n.Entry.FileInfo.Path))

		for _, child := range n.Children {
			appendLines(child, nestLevel+1)
		}
	}

	appendLines(tree, 1)
	return strings.Join(lines, "\n")
}
