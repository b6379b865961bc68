package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// NodeConfig 节点配置
type NodeConfig struct {
	Listen        string        `yaml:"listen"`         // HTTP 监听地址
	DataDir       string        `yaml:"data_dir"`       // badger 数据目录
	AdminToken    string        `yaml:"admin_token"`    // 管理接口令牌（映射为 Root 来源）
	BlockInterval time.Duration `yaml:"block_interval"` // 模拟区块间隔
	EpochBlocks   uint64        `yaml:"epoch_blocks"`   // 每多少个区块为一个纪元
}

// LimitsConfig 有界集合容量配置
type LimitsConfig struct {
	ProxyLimit         int `yaml:"proxy_limit"`          // 单个主账户的代理上限
	WithdrawalLimit    int `yaml:"withdrawal_limit"`     // 单账户单快照的取款条目上限
	AssetsLimit        int `yaml:"assets_limit"`         // 单快照的手续费池条目上限
	SnapshotAccLimit   int `yaml:"snapshot_acc_limit"`   // 单快照覆盖的账户数上限
	OnChainEventsLimit int `yaml:"onchain_events_limit"` // 链上审计事件容量
}

// PolicyConfig 策略参数配置
type PolicyConfig struct {
	// FeeBatchLimit 单次 collect_fees 处理的手续费条目上限
	FeeBatchLimit int `yaml:"fee_batch_limit"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `yaml:"level"`
	OutputFile string `yaml:"output_file"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// Config 全局配置
type Config struct {
	Node   NodeConfig   `yaml:"node"`
	Limits LimitsConfig `yaml:"limits"`
	Policy PolicyConfig `yaml:"policy"`
	Log    LogConfig    `yaml:"log"`
}

// Default 默认配置。容量默认值与撮合飞地约定一致，改动需要两侧同步。
func Default() Config {
	return Config{
		Node: NodeConfig{
			Listen:        ":8545",
			DataDir:       "data/exchain",
			BlockInterval: 6 * time.Second,
			EpochBlocks:   10,
		},
		Limits: LimitsConfig{
			ProxyLimit:         3,
			WithdrawalLimit:    10,
			AssetsLimit:        10,
			SnapshotAccLimit:   1000,
			OnChainEventsLimit: 500,
		},
		Policy: PolicyConfig{
			FeeBatchLimit: 3,
		},
		Log: LogConfig{
			Level:      "info",
			OutputFile: "logs/exchain.log",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   true,
		},
	}
}

// Load 从 yaml 文件加载配置，缺省字段回落到默认值
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("读取配置文件失败: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("解析配置文件失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate 校验配置合法性
func (c *Config) Validate() error {
	if c.Limits.ProxyLimit <= 0 {
		return fmt.Errorf("proxy_limit 必须为正数")
	}
	if c.Limits.OnChainEventsLimit <= 0 {
		return fmt.Errorf("onchain_events_limit 必须为正数")
	}
	if c.Limits.SnapshotAccLimit <= 0 {
		return fmt.Errorf("snapshot_acc_limit 必须为正数")
	}
	if c.Policy.FeeBatchLimit <= 0 {
		return fmt.Errorf("fee_batch_limit 必须为正数")
	}
	if c.Node.EpochBlocks == 0 {
		return fmt.Errorf("epoch_blocks 必须为正数")
	}
	return nil
}
