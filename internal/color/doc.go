// Package color provides the terminal theme of dashlayout's command output.
//
// Styles use lipgloss adaptive colors, so they follow the terminal's
// background. Initialize forces a dark or light background, Disable turns
// styling off (also done when NO_COLOR is set).
//
//	color.Setup(cfg.Output.DarkBackground, noColor)
//	fmt.Println(color.TitleStyle.Render("Layout"))
package color
