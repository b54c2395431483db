package mapper

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/compozy/o2a/engine/el"
)

const (
	ParamNameNode        = "nameNode"
	ParamApplicationPath = "oozie.wf.application.path"
)

var archiveExtensions = []string{".zip", ".gz", ".tar.gz", ".tar", ".jar"}

// ExtractFiles returns the HDFS locations of every <file> child
func ExtractFiles(action *etree.Element, params map[string]string) ([]string, error) {
	out := []string{}
	for _, raw := range childTexts(action, "file") {
		path := el.Resolve(raw, params)
		if _, err := splitByHash(path); err != nil {
			return nil, err
		}
		hdfs, err := toHDFS(path, params)
		if err != nil {
			return nil, err
		}
		out = append(out, hdfs)
	}
	return out, nil
}

// ExtractArchives returns the HDFS locations of every <archive> child
func ExtractArchives(action *etree.Element, params map[string]string) ([]string, error) {
	out := []string{}
	for _, raw := range childTexts(action, "archive") {
		path := el.Resolve(raw, params)
		parts, err := splitByHash(path)
		if err != nil {
			return nil, err
		}
		if !hasArchiveExtension(parts[0]) {
			return nil, fmt.Errorf(
				"archive %q must end with one of %s",
				parts[0], strings.Join(archiveExtensions, ", "),
			)
		}
		hdfs, err := toHDFS(path, params)
		if err != nil {
			return nil, err
		}
		out = append(out, hdfs)
	}
	return out, nil
}

func splitByHash(path string) ([]string, error) {
	parts := strings.Split(path, "#")
	if len(parts) > 2 {
		return nil, fmt.Errorf("path %q contains more than one '#'", path)
	}
	return parts, nil
}

func hasArchiveExtension(path string) bool {
	for _, ext := range archiveExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func toHDFS(path string, params map[string]string) (string, error) {
	if strings.HasPrefix(path, "/") {
		nameNode, ok := params[ParamNameNode]
		if !ok {
			return "", fmt.Errorf("param %s is required to resolve %q", ParamNameNode, path)
		}
		return nameNode + path, nil
	}
	appPath, ok := params[ParamApplicationPath]
	if !ok {
		return "", fmt.Errorf("param %s is required to resolve %q", ParamApplicationPath, path)
	}
	return appPath + "/" + path, nil
}
