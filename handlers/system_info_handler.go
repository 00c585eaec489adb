package handlers

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"discord-modbot/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

func (h *handler) handleSystemInfo(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := h.context()
	defer cancel()

	// Get CPU info
	cpuCount, _ := cpu.CountsWithContext(ctx, true)
	cpuPercent, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil || len(cpuPercent) == 0 {
		cpuPercent = []float64{0}
	}

	// Get memory info
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		vm = &mem.VirtualMemoryStat{}
	}

	// Get host info
	hostInfo, err := host.InfoWithContext(ctx)
	if err != nil {
		hostInfo = &host.InfoStat{}
	}

	var dbSize int64
	if st, err := os.Stat(h.b.Store.Path()); err == nil {
		dbSize = st.Size()
	}
	version, err := h.b.Store.UserVersion(ctx)
	if err != nil {
		logger.WithError(err).Warn("Failed to read schema version")
	}

	embed := &discordgo.MessageEmbed{
		Title: "System information",
		Color: utils.ColorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "💻 OS", Value: fmt.Sprintf("%s %s", hostInfo.Platform, hostInfo.PlatformVersion), Inline: true},
			{Name: "🔧 Kernel", Value: hostInfo.KernelVersion, Inline: true},
			{Name: "🐹 Go", Value: runtime.Version(), Inline: true},
			{Name: "🔼 CPUs", Value: fmt.Sprintf("%d", cpuCount), Inline: true},
			{Name: "🔥 CPU usage", Value: fmt.Sprintf("%.1f%%", cpuPercent[0]), Inline: true},
			{Name: "🧠 Memory", Value: fmt.Sprintf("%.1f%% (%d MB / %d MB)", vm.UsedPercent, vm.Used/1024/1024, vm.Total/1024/1024), Inline: true},
			{Name: "🗃️ Database", Value: fmt.Sprintf("%.2f MB, schema v%d", float64(dbSize)/1024/1024, version), Inline: true},
			{Name: "⏱️ Gateway latency", Value: s.HeartbeatLatency().String(), Inline: true},
			{Name: "🚀 Goroutines", Value: fmt.Sprintf("%d", runtime.NumGoroutine()), Inline: true},
			{Name: "🌍 Guilds", Value: fmt.Sprintf("%d", len(s.State.Guilds)), Inline: true},
			{Name: "⏳ Host uptime", Value: (time.Duration(hostInfo.Uptime) * time.Second).String(), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("System monitor · %s UTC", time.Now().UTC().Format("15:04")),
		},
	}

	utils.SendEmbedResponse(s, i, false, embed)
}
