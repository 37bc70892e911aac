package models

import "strings"

// FileTree is the nested directory structure the sandbox mount operation
// consumes. Each key is a single path segment; a node is either a file with
// content or a subdirectory.
type FileTree map[string]TreeNode

// TreeNode holds either file content or a subdirectory. Dir is nil for files.
type TreeNode struct {
	Content string
	Dir     FileTree
}

// IsDir reports whether the node is a directory.
func (n TreeNode) IsDir() bool { return n.Dir != nil }

// BuildFileTree folds a flat file list into nested form. Files with empty
// relative paths are dropped. Later entries win on path collisions, matching
// archive enumeration order.
func BuildFileTree(files []CodeFile) FileTree {
	root := FileTree{}
	for _, f := range files {
		path := strings.Trim(f.Path, "/")
		if path == "" {
			continue
		}
		segments := strings.Split(path, "/")
		dir := root
		for _, seg := range segments[:len(segments)-1] {
			node, ok := dir[seg]
			if !ok || node.Dir == nil {
				node = TreeNode{Dir: FileTree{}}
				dir[seg] = node
			}
			dir = node.Dir
		}
		dir[segments[len(segments)-1]] = TreeNode{Content: f.Content}
	}
	return root
}

// Walk visits every file in the tree in depth-first order, calling fn with
// the full forward-slash path and content.
func (t FileTree) Walk(fn func(path, content string) error) error {
	return t.walk("", fn)
}

func (t FileTree) walk(prefix string, fn func(path, content string) error) error {
	for name, node := range t {
		path := name
		if prefix != "" {
			path = prefix + "/" + name
		}
		if node.IsDir() {
			if err := node.Dir.walk(path, fn); err != nil {
				return err
			}
			continue
		}
		if err := fn(path, node.Content); err != nil {
			return err
		}
	}
	return nil
}
