package config

import "testing"

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() = %v, want nil", err)
	}
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty system", func(c *Config) { c.SystemName = "" }},
		{"zero budget", func(c *Config) { c.Budget = 0 }},
		{"negative cargo", func(c *Config) { c.CargoCapacity = -1 }},
		{"negative radius", func(c *Config) { c.BuyRadius = -1 }},
		{"negative reference location", func(c *Config) { c.ReferenceLocationID = -1 }},
		{"tax over 100", func(c *Config) { c.SalesTaxPercent = 101 }},
		{"negative broker fee", func(c *Config) { c.BrokerFeePercent = -0.5 }},
		{"buy broker fee over 100", func(c *Config) { c.BuyBrokerFeePercent = 150 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}
