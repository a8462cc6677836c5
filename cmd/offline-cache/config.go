package main

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port       int      `yaml:"port"`
	Origin     string   `yaml:"origin"`
	Host       string   `yaml:"host"`
	Generation string   `yaml:"generation"`
	APIPrefix  string   `yaml:"apiPrefix"`
	Offline    string   `yaml:"offline"`
	WarmList   []string `yaml:"warmList"`
	// TTL for api entries, in seconds
	APITTLSeconds int  `yaml:"apiTTLSeconds"`
	APIMax        int  `yaml:"apiMax"`
	DynamicMax    int  `yaml:"dynamicMax"`
	SkipWaiting   bool `yaml:"skipWaiting"`
}

func getConfig(filename string) (Config, error) {
	var config Config
	configBytes, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	err = yaml.Unmarshal(configBytes, &config)
	return config, err
}
