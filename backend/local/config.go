package local

type Config struct {
	Path string `yaml:"path"`
}
