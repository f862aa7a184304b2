package vmentorcmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	vmentorcmder "github.com/vmentor/vmentor/cmd/vmentor"
)

var _ = Describe("NewVmentorCmd", func() {
	It("wires every top level command", func() {
		cmd := vmentorcmder.NewVmentorCmd()
		names := make([]string, 0, len(cmd.Commands()))
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements("serve", "chat", "render", "config", "init", "version"))
	})

	It("has global debug and config-dir flags", func() {
		cmd := vmentorcmder.NewVmentorCmd()
		Expect(cmd.PersistentFlags().Lookup("debug")).NotTo(BeNil())
		Expect(cmd.PersistentFlags().Lookup("config-dir")).NotTo(BeNil())
	})

	It("nests the api and proxy services under serve", func() {
		cmd := vmentorcmder.NewVmentorCmd()
		serve, _, err := cmd.Find([]string{"serve"})
		Expect(err).NotTo(HaveOccurred())

		names := []string{}
		for _, sub := range serve.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ConsistOf("api", "proxy"))
	})

	It("shares flag definitions between serve and serve proxy", func() {
		cmd := vmentorcmder.NewVmentorCmd()
		serve, _, err := cmd.Find([]string{"serve"})
		Expect(err).NotTo(HaveOccurred())
		proxy, _, err := cmd.Find([]string{"serve", "proxy"})
		Expect(err).NotTo(HaveOccurred())

		Expect(serve.Flags().Lookup("upstream").DefValue).To(Equal(proxy.Flags().Lookup("upstream").DefValue))
		Expect(proxy.Flags().Lookup("listen").DefValue).To(Equal(":8080"))
	})
})
