package cmd

var (
	configPath string
	verbose    bool
	debug      bool

	outDirectory  string
	cacheFile     string
	override      bool
	downloadCover bool
	progressBars  bool
	sendReports   bool
	language      string
	dataSaver     bool
	workers       int
	format        string

	chapterNumbers string
)

func initRootFlags() {
	rootCmd.PersistentFlags().StringVarP(
		&configPath,
		"config",
		"c",
		"",
		"specifies the directory of your config file",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"log progress at info level",
	)
	rootCmd.PersistentFlags().BoolVar(
		&debug,
		"debug",
		false,
		"log everything at debug level",
	)

	rootCmd.PersistentFlags().StringVarP(
		&outDirectory,
		"out-directory",
		"o",
		"",
		"specifies the directory series are saved to. default: ./mangadex-dl",
	)
	rootCmd.PersistentFlags().StringVar(
		&cacheFile,
		"cache-file",
		"",
		"specifies the file downloaded chapters are recorded in",
	)
	rootCmd.PersistentFlags().BoolVar(
		&override,
		"override",
		false,
		"download chapters even when they are in the cache, without recording them",
	)
	rootCmd.PersistentFlags().BoolVar(
		&progressBars,
		"progress",
		false,
		"show progress bars",
	)
	rootCmd.PersistentFlags().BoolVar(
		&sendReports,
		"report",
		false,
		"send image download reports to MangaDex@Home",
	)
	rootCmd.PersistentFlags().StringVar(
		&language,
		"language",
		"",
		"specifies the translation language. default: en",
	)
	rootCmd.PersistentFlags().IntVar(
		&workers,
		"workers",
		0,
		"specifies how many pages are downloaded at the same time. default: 5",
	)
}

func initDownloadFlags() {
	downloadCmd.Flags().BoolVar(
		&downloadCover,
		"download-cover",
		false,
		"save the series cover as cover.jpg",
	)
	downloadCmd.Flags().BoolVar(
		&dataSaver,
		"data-saver",
		false,
		"download compressed pages",
	)
	downloadCmd.Flags().StringVar(
		&format,
		"format",
		"",
		"specifies the archive format, cbz or pdf. default: cbz",
	)
	downloadCmd.Flags().StringVarP(
		&chapterNumbers,
		"chapters",
		"C",
		"",
		"specifies the chapter numbers you want to download, e.g. 1,3-5,latest",
	)
}
