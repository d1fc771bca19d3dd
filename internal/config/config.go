// Package config loads the engine's runtime configuration with viper and
// watches it for changes with fsnotify, the way sgl-project-ome's
// serving-agent watches a mounted ConfigMap file for finetuned-model
// changes: ConfigMaps never rewrite a file in place, they create a new
// one and rename over the old, so the watcher follows the file's
// directory rather than the file handle itself.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Engine is the full set of knobs the engine binary reads at startup.
type Engine struct {
	LogLevel            string `mapstructure:"log_level"`
	WorkspaceRoot       string `mapstructure:"workspace_root"`
	LocalKubeconfigRoot string `mapstructure:"local_kubeconfig_root"`
	BootstrapLibRoot    string `mapstructure:"bootstrap_lib_root"`
	HelmTimeoutSeconds  int    `mapstructure:"helm_timeout_seconds"`
	MaxParallelDeploy   int    `mapstructure:"max_parallel_deploy"`
	ReportIntervalSecs  int    `mapstructure:"report_interval_seconds"`

	Cloud struct {
		Kind   string `mapstructure:"kind"`
		Region string `mapstructure:"region"`

		AzureSubscriptionID string `mapstructure:"azure_subscription_id"`
		AzureResourceGroup  string `mapstructure:"azure_resource_group"`
		GCPProjectID        string `mapstructure:"gcp_project_id"`
		EtcdEndpoints       []string `mapstructure:"etcd_endpoints"`
		ManagedDomain       string `mapstructure:"managed_domain"`
	} `mapstructure:"cloud"`

	ObjectStorage struct {
		KubeconfigBucket string `mapstructure:"kubeconfig_bucket"`
		LogsBucket       string `mapstructure:"logs_bucket"`
	} `mapstructure:"object_storage"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("workspace_root", "/var/run/cluster-engine")
	v.SetDefault("local_kubeconfig_root", "/var/run/cluster-engine/kubeconfigs")
	v.SetDefault("bootstrap_lib_root", "/etc/cluster-engine/lib")
	v.SetDefault("helm_timeout_seconds", 480)
	v.SetDefault("max_parallel_deploy", 2)
	v.SetDefault("report_interval_seconds", 15)
}

// Load reads configPath into an Engine config, applying defaults for any
// key the file doesn't set and binding CLUSTER_ENGINE_-prefixed env vars
// over it.
func Load(configPath string) (*Engine, *viper.Viper, error) {
	v := viper.New()
	defaults(v)
	v.SetEnvPrefix("cluster_engine")
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, nil, fmt.Errorf("failed to read config %s: %w", configPath, err)
		}
	}

	var cfg Engine
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, v, nil
}

// Watcher follows a config file's directory (not the file handle itself,
// since ConfigMap-mounted files are replaced via rename rather than
// rewritten in place) and re-unmarshals on every write/create event.
type Watcher struct {
	watcher *fsnotify.Watcher
	path    string
	v       *viper.Viper
	Changes chan *Engine
}

// NewWatcher starts watching configPath's directory for changes.
func NewWatcher(v *viper.Viper, configPath string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create config watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(configPath)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}
	w := &Watcher{watcher: fw, path: filepath.Clean(configPath), v: v, Changes: make(chan *Engine, 1)}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			debounce.Reset(500 * time.Millisecond)
		case <-debounce.C:
			if err := w.v.ReadInConfig(); err != nil {
				continue
			}
			var cfg Engine
			if err := w.v.Unmarshal(&cfg); err != nil {
				continue
			}
			select {
			case w.Changes <- &cfg:
			default:
			}
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}
