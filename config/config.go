/*
Licensed to the Apache Software Foundation (ASF) under one
or more contributor license agreements.  See the NOTICE file
distributed with this work for additional information
regarding copyright ownership.  The ASF licenses this file
to you under the Apache License, Version 2.0 (the
"License"); you may not use this file except in compliance
with the License.  You may obtain a copy of the License at

  http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing,
software distributed under the License is distributed on an
"AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
KIND, either express or implied.  See the License for the
specific language governing permissions and limitations
under the License.
*/

package config

import (
	"io/ioutil"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/davecgh/go-spew/spew"
	"github.com/k-vswitch/switchd/connection"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"k8s.io/klog"
)

const (
	DefaultConfigPath      = "/etc/switchd/switchd.yaml"
	DefaultListenAddress   = "tcp::6653"
	DefaultCacheCapacity   = 4096
	DefaultCacheTimeout    = 240 * time.Second
	DefaultConnectInterval = 5 * time.Second

	configVersion = "1.0"
)

type Config struct {
	Version     string   `yaml:"version"     valid:"required,in(1.0)"`
	Description string   `yaml:"description" valid:"optional"`
	Listen      []string `yaml:"listen"      valid:"-"`
	Connect     *Connect `yaml:"connect"     valid:"optional"`
	Cache       *Cache   `yaml:"cache"       valid:"optional"`
	Verbose     int      `yaml:"verbose"     valid:"range(0|10)"`
}

// Connect lists the switches dialed by the controller.
type Connect struct {
	Switches []string      `yaml:"switches" valid:"-"`
	Interval time.Duration `yaml:"interval" valid:"optional"`
}

type Cache struct {
	Capacity int           `yaml:"capacity" valid:"range(1|1048576)"`
	Timeout  time.Duration `yaml:"timeout"  valid:"optional"`
}

// Default is the configuration used without a configuration file.
func Default() *Config {
	c := &Config{Version: configVersion}
	c.setDefaults()
	return c
}

// Load reads, completes and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return c, nil
}

func Parse(data []byte) (*Config, error) {
	c := &Config{}
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return nil, errors.Wrap(err, "decoding yaml")
	}

	c.setDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) setDefaults() {
	if len(c.Listen) == 0 && (c.Connect == nil || len(c.Connect.Switches) == 0) {
		c.Listen = []string{DefaultListenAddress}
	}

	if c.Connect == nil {
		c.Connect = &Connect{}
	}
	if c.Connect.Interval == 0 {
		c.Connect.Interval = DefaultConnectInterval
	}

	if c.Cache == nil {
		c.Cache = &Cache{}
	}
	if c.Cache.Capacity == 0 {
		c.Cache.Capacity = DefaultCacheCapacity
	}
	if c.Cache.Timeout == 0 {
		c.Cache.Timeout = DefaultCacheTimeout
	}
}

func (c *Config) Validate() error {
	if _, err := govalidator.ValidateStruct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}

	if c.Cache.Timeout < time.Second {
		return errors.Errorf("cache timeout %s is shorter than a second", c.Cache.Timeout)
	}
	if c.Connect.Interval < 0 {
		return errors.Errorf("negative connect interval %s", c.Connect.Interval)
	}

	for _, addr := range c.Listen {
		if _, _, err := connection.ParseAddress(addr); err != nil {
			return errors.Wrapf(err, "invalid listen address %q", addr)
		}
	}
	for _, addr := range c.Connect.Switches {
		if _, _, err := connection.ParseAddress(addr); err != nil {
			return errors.Wrapf(err, "invalid switch address %q", addr)
		}
	}
	return nil
}

func (c *Config) Print() {
	spew.Config.Indent = "\t"
	klog.Infof("configuration:\n%s", spew.Sdump(c))
}
