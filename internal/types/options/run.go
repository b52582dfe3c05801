package options

// RunOptions définit les options d'une exécution du mirroir
type RunOptions struct {
	Notify  bool // Envoyer un résumé via Apprise
	Cleanup bool // Supprimer les images locales après push
}

type RunOption func(*RunOptions)

func NewRunOptions(opts ...RunOption) RunOptions {
	options := RunOptions{
		Notify:  false,
		Cleanup: true,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

func WithRunNotify(notify bool) RunOption {
	return func(o *RunOptions) {
		o.Notify = notify
	}
}

func WithRunCleanup(cleanup bool) RunOption {
	return func(o *RunOptions) {
		o.Cleanup = cleanup
	}
}
