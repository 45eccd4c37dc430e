//go:build !windows

package secret

func normalize(val string) string {
	return val
}
