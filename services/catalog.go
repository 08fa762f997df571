package services

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Reward is a catalog entry redeemable for a discount voucher.
type Reward struct {
	ID              string `yaml:"id" json:"id"`
	Name            string `yaml:"name" json:"name"`
	PointsCost      int64  `yaml:"points_cost" json:"points_cost"`
	DiscountPercent int    `yaml:"discount_percent" json:"discount_percent"`
}

// RewardCatalog is the fixed reward table consumed by voucher redemption.
// It is read-only after construction.
type RewardCatalog struct {
	rewards map[string]Reward
}

type catalogFile struct {
	Rewards []Reward `yaml:"rewards"`
}

func DefaultRewardCatalog() *RewardCatalog {
	catalog, _ := NewRewardCatalog([]Reward{
		{ID: "DISC10K10P", Name: "10% off", PointsCost: 10000, DiscountPercent: 10},
		{ID: "DISC20K20P", Name: "20% off", PointsCost: 20000, DiscountPercent: 20},
	})
	return catalog
}

func NewRewardCatalog(rewards []Reward) (*RewardCatalog, error) {
	c := &RewardCatalog{rewards: make(map[string]Reward, len(rewards))}
	for _, r := range rewards {
		if r.ID == "" {
			return nil, fmt.Errorf("reward without id")
		}
		if r.PointsCost <= 0 {
			return nil, fmt.Errorf("reward %s: points_cost must be positive", r.ID)
		}
		if r.DiscountPercent <= 0 || r.DiscountPercent > 100 {
			return nil, fmt.Errorf("reward %s: discount_percent must be in 1..100", r.ID)
		}
		if _, dup := c.rewards[r.ID]; dup {
			return nil, fmt.Errorf("reward %s listed twice", r.ID)
		}
		c.rewards[r.ID] = r
	}
	return c, nil
}

func ParseRewardCatalog(data []byte) (*RewardCatalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse reward catalog: %w", err)
	}
	return NewRewardCatalog(file.Rewards)
}

// LoadRewardCatalog reads a YAML catalog. An empty path yields the default
// catalog.
func LoadRewardCatalog(path string) (*RewardCatalog, error) {
	if path == "" {
		return DefaultRewardCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reward catalog: %w", err)
	}
	return ParseRewardCatalog(data)
}

func (c *RewardCatalog) Lookup(id string) (Reward, bool) {
	r, ok := c.rewards[id]
	return r, ok
}

// List returns the rewards ordered by cost.
func (c *RewardCatalog) List() []Reward {
	out := make([]Reward, 0, len(c.rewards))
	for _, r := range c.rewards {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PointsCost != out[j].PointsCost {
			return out[i].PointsCost < out[j].PointsCost
		}
		return out[i].ID < out[j].ID
	})
	return out
}
